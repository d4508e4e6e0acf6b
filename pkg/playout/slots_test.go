// ABOUTME: Tests for slot buffers and the audio retention ring
// ABOUTME: Capacity enforcement and block retention across ring wraps
package playout

import (
	"testing"

	"github.com/openplayout/playout-go/pkg/frame"
)

func TestSlotBufferCapacity(t *testing.T) {
	s := newSlotBuffer(1)

	if !s.tryPush(frame.Empty) {
		t.Fatal("first push should succeed")
	}
	if s.tryPush(frame.Empty) {
		t.Fatal("push beyond capacity must fail")
	}
	if s.len() != 1 {
		t.Fatalf("occupancy %d, want 1", s.len())
	}

	if _, ok := s.tryPop(); !ok {
		t.Fatal("pop should succeed")
	}
	if _, ok := s.tryPop(); ok {
		t.Fatal("pop from empty slot must fail")
	}
}

func TestAudioHistoryRetainsCopies(t *testing.T) {
	h := newAudioHistory(3)

	src := []int32{1, 2, 3}
	block := h.retain(src)

	src[0] = 99
	if block[0] != 1 {
		t.Error("retained block must be an independent copy")
	}
}

func TestAudioHistoryRingReuse(t *testing.T) {
	h := newAudioHistory(2)

	first := h.retain([]int32{1})
	h.retain([]int32{2})
	h.retain([]int32{3}) // wraps, replacing the first slot

	if h.blocks[0][0] != 3 {
		t.Error("ring should reuse the oldest slot")
	}
	// The caller-held reference stays valid even after the wrap.
	if first[0] != 1 {
		t.Error("previously returned block must not be mutated")
	}
}

func TestLatchKeepsFirstFailure(t *testing.T) {
	var l errorLatch

	l.store(errTest("first"))
	l.store(errTest("second"))

	if err := l.take(); err == nil || err.Error() != "first" {
		t.Errorf("expected first failure, got %v", err)
	}
	if err := l.take(); err != nil {
		t.Errorf("latch should be clear after take, got %v", err)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
