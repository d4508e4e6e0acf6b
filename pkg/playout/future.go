// ABOUTME: One-shot send future and retry-on-free pending-send primitive
// ABOUTME: Decouples the producer from the two independently draining feed paths
package playout

import (
	"context"
	"sync"
)

// SendFuture resolves exactly once, when the sent frame has been accepted
// into every applicable slot buffer.
type SendFuture struct {
	done chan struct{}
	once sync.Once
}

func newSendFuture() *SendFuture {
	return &SendFuture{done: make(chan struct{})}
}

func resolvedFuture() *SendFuture {
	f := newSendFuture()
	f.resolve()
	return f
}

func (f *SendFuture) resolve() {
	f.once.Do(func() { close(f.done) })
}

// Done is closed once the frame has been accepted.
func (f *SendFuture) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the frame is accepted or ctx is cancelled.
func (f *SendFuture) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pendingSend holds the deferred enqueue attempt for the one in-flight Send.
// The attempt closure carries the partial-progress flags (audio-accepted,
// video-accepted); it is re-run under the lock every time either feed path
// frees a slot, from whichever callback goroutine freed it.
type pendingSend struct {
	mu      sync.Mutex
	attempt func() bool
	future  *SendFuture
}

// set registers a new deferred attempt, replacing any previous one. Callers
// are sequential: the owning goroutine awaits each future before sending
// again.
func (p *pendingSend) set(attempt func() bool, fut *SendFuture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempt = attempt
	p.future = fut
}

// tryComplete re-runs the registered attempt, resolving the future exactly
// once when both slots have accepted the frame. Safe to call concurrently
// from the video-completion and audio-render goroutines.
func (p *pendingSend) tryComplete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.attempt == nil {
		return
	}
	if p.attempt() {
		p.future.resolve()
		p.attempt = nil
		p.future = nil
	}
}
