// ABOUTME: Single-slot cross-thread error latch
// ABOUTME: Captures the first callback failure for re-raising on the next Send
package playout

import "sync"

// errorLatch holds at most one captured failure. Callbacks store into it
// from driver threads; Send checks-and-clears it from the owning goroutine.
type errorLatch struct {
	mu  sync.Mutex
	err error
}

// store captures err. The first failure wins; later ones are dropped.
func (l *errorLatch) store(err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err == nil {
		l.err = err
	}
}

// take returns the captured failure, if any, and clears the latch.
func (l *errorLatch) take() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.err
	l.err = nil
	return err
}
