package timers

import (
	"sync"
	"time"
)

// Timer is a single-slot delayed callback. Scheduling always cancels any
// pending callback first, so at most one firing can be outstanding per Timer.
// The zero value is ready to use.
type Timer struct {
	mu      sync.Mutex
	t       *time.Timer
	pending bool
}

// Schedule arms the timer to run fn after d, canceling any previously
// scheduled callback. fn runs on its own goroutine (time.AfterFunc
// semantics); callers are expected to re-validate shared state inside fn.
func (r *Timer) Schedule(d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.t != nil {
		r.t.Stop()
	}
	r.pending = true
	r.t = time.AfterFunc(d, func() {
		r.mu.Lock()
		r.pending = false
		r.mu.Unlock()
		fn()
	})
}

// Stop cancels the pending callback, if any. Idempotent. A callback that has
// already started running is not interrupted; callers guard against that by
// epoch checks, not by Stop.
func (r *Timer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.t != nil {
		r.t.Stop()
		r.t = nil
	}
	r.pending = false
}

// Pending reports whether a callback is currently scheduled and has not yet
// started running.
func (r *Timer) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}
