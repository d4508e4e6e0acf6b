// ABOUTME: Tests for the WebSocket status monitor
// ABOUTME: Covers server lifecycle, snapshot delivery and client bookkeeping
package monitor

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openplayout/playout-go/pkg/playout"
)

// fakeSource is a scripted StatusSource with a counter that advances on
// every stats read.
type fakeSource struct {
	reads atomic.Int64
}

func (f *fakeSource) Status() playout.Status {
	return playout.Status{
		Type:    "decklink",
		Device:  2,
		Model:   "Test Device",
		Format:  "PAL",
		Channel: 1,
		Keyer:   "external",
	}
}

func (f *fakeSource) Stats() playout.Stats {
	return playout.Stats{ScheduledVideoFrames: f.reads.Add(1)}
}

func (f *fakeSource) String() string {
	return "Test Device [1-2|PAL]"
}

func TestNewServer(t *testing.T) {
	if _, err := NewServer(Config{Addr: ":0"}); err == nil {
		t.Error("expected error without a status source")
	}

	s, err := NewServer(Config{Source: &fakeSource{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.config.Addr == "" {
		t.Error("addr should have been set to default")
	}
	if s.config.Interval != DefaultInterval {
		t.Error("interval should have been set to default")
	}
}

func TestServerStartStop(t *testing.T) {
	s, err := NewServer(Config{Addr: ":0", Source: &fakeSource{}})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	if s.Addr() == "" {
		t.Error("expected a bound address after start")
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Error("server did not stop within timeout")
	}
}

func TestServerDeliversSnapshots(t *testing.T) {
	src := &fakeSource{}
	s, err := NewServer(Config{
		Addr:     ":0",
		Source:   src,
		Interval: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer s.Stop()

	wsURL := fmt.Sprintf("ws://%s/monitor", s.Addr())
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	// First snapshot arrives immediately on connect.
	var snap Snapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}

	if snap.Consumer != src.String() {
		t.Errorf("consumer %q, want %q", snap.Consumer, src.String())
	}
	if snap.Status.Model != "Test Device" || snap.Status.Format != "PAL" {
		t.Errorf("unexpected status: %+v", snap.Status)
	}

	// Subsequent snapshots arrive on the tick with fresh counters.
	var next Snapshot
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("failed to read second snapshot: %v", err)
	}
	if next.Stats.ScheduledVideoFrames <= snap.Stats.ScheduledVideoFrames {
		t.Error("second snapshot should carry a fresh stats read")
	}
}

func TestServerTracksClients(t *testing.T) {
	s, err := NewServer(Config{Addr: ":0", Source: &fakeSource{}})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer s.Stop()

	wsURL := fmt.Sprintf("ws://%s/monitor", s.Addr())

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("failed to connect client %d: %v", i, err)
		}
		conns[i] = conn

		// Consume the greeting snapshot.
		var snap Snapshot
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&snap); err != nil {
			t.Fatalf("failed to read greeting for client %d: %v", i, err)
		}
	}

	if got := s.ClientCount(); got != 3 {
		t.Errorf("client count %d, want 3", got)
	}

	for _, conn := range conns {
		conn.Close()
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 0 clients after disconnect, got %d", s.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
