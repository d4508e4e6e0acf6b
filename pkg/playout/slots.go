// ABOUTME: Bounded slot buffers and the scheduled-audio retention ring
// ABOUTME: Decouple asynchronous ingestion from driver-paced consumption
package playout

import "github.com/openplayout/playout-go/pkg/frame"

// slotBuffer is a bounded frame queue. The video slot has capacity 1,
// mirroring the hardware's minimal double-buffer contract; the audio slot
// has capacity 2 above 50 fps because the device pulls audio 50 times per
// second regardless of video mode.
type slotBuffer struct {
	ch chan *frame.Frame
}

func newSlotBuffer(capacity int) *slotBuffer {
	return &slotBuffer{ch: make(chan *frame.Frame, capacity)}
}

func (s *slotBuffer) tryPush(f *frame.Frame) bool {
	select {
	case s.ch <- f:
		return true
	default:
		return false
	}
}

func (s *slotBuffer) tryPop() (*frame.Frame, bool) {
	select {
	case f := <-s.ch:
		return f, true
	default:
		return nil, false
	}
}

func (s *slotBuffer) len() int {
	return len(s.ch)
}

// audioHistory retains raw sample blocks that the device still references
// asynchronously. Capacity is buffer depth + 1, so the oldest retained
// block is guaranteed to have displayed before its slot is reused.
type audioHistory struct {
	blocks [][]int32
	next   int
}

func newAudioHistory(capacity int) *audioHistory {
	return &audioHistory{blocks: make([][]int32, capacity)}
}

// retain copies samples into the ring and returns the retained block, which
// stays valid until the ring wraps back around.
func (h *audioHistory) retain(samples []int32) []int32 {
	block := make([]int32, len(samples))
	copy(block, samples)
	h.blocks[h.next] = block
	h.next = (h.next + 1) % len(h.blocks)
	return block
}
