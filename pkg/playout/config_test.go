// ABOUTME: Tests for consumer configuration
// ABOUTME: Derived buffer depth arithmetic and defaults
package playout

import "testing"

func TestBufferDepth(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{"default", Config{BaseBufferDepth: 3, EmbeddedAudio: true}, 5},
		{"low latency", Config{BaseBufferDepth: 3, EmbeddedAudio: true, Latency: LatencyLow}, 4},
		{"no audio", Config{BaseBufferDepth: 3}, 4},
		{"low latency no audio", Config{BaseBufferDepth: 3, Latency: LatencyLow}, 3},
		{"deep", Config{BaseBufferDepth: 6, EmbeddedAudio: true, Latency: LatencyNormal}, 8},
	}

	for _, tt := range tests {
		if got := tt.cfg.BufferDepth(); got != tt.want {
			t.Errorf("%s: buffer depth %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DeviceIndex != 1 {
		t.Errorf("default device index %d, want 1", cfg.DeviceIndex)
	}
	if !cfg.EmbeddedAudio {
		t.Error("embedded audio should default on")
	}
	if cfg.KeyOnly {
		t.Error("key-only should default off")
	}
	if cfg.Keyer != KeyerDefault || cfg.Latency != LatencyDefault {
		t.Error("keyer and latency should default to device defaults")
	}
	if cfg.BufferDepth() != 5 {
		t.Errorf("default buffer depth %d, want 5", cfg.BufferDepth())
	}
}

func TestModeStrings(t *testing.T) {
	if KeyerInternal.String() != "internal" || KeyerExternal.String() != "external" || KeyerDefault.String() != "default" {
		t.Error("unexpected keyer strings")
	}
	if LatencyLow.String() != "low" || LatencyNormal.String() != "normal" || LatencyDefault.String() != "default" {
		t.Error("unexpected latency strings")
	}
}
