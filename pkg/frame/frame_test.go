// ABOUTME: Tests for the frame snapshot type
// ABOUTME: Verifies sample-frame accounting and the empty placeholder
package frame

import "testing"

func TestSampleFrames(t *testing.T) {
	f := &Frame{Audio: make([]int32, 1920*2)}

	if got := f.SampleFrames(2); got != 1920 {
		t.Errorf("expected 1920 sample frames, got %d", got)
	}
}

func TestEmptyFrame(t *testing.T) {
	if !Empty.IsEmpty() {
		t.Error("Empty should report empty")
	}

	if Empty.SampleFrames(2) != 0 {
		t.Error("Empty should carry no audio")
	}
}
