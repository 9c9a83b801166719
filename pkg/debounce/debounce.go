// Package debounce provides a trailing-edge debouncer: rapid successive
// calls collapse into a single invocation once the calls pause long enough.
package debounce

import (
	"sync"
	"time"
)

// Debounce returns a function that, when called, schedules fn to run after
// the given duration. Calling again before the duration elapses resets the
// timer, so fn runs exactly once per burst of calls, after the burst pauses.
// The returned function is safe for concurrent use; fn runs on a timer
// goroutine.
func Debounce(after time.Duration, fn func()) func() {
	call, _ := WithCancel(after, fn)
	return call
}

// WithCancel is Debounce with a second function that stops any pending
// invocation. After cancel returns, fn will not run until call is invoked
// again. Both functions are safe for concurrent use.
func WithCancel(after time.Duration, fn func()) (call func(), cancel func()) {
	var mu sync.Mutex
	var timer *time.Timer

	call = func() {
		mu.Lock()
		defer mu.Unlock()

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(after, fn)
	}
	cancel = func() {
		mu.Lock()
		defer mu.Unlock()

		if timer != nil {
			timer.Stop()
			timer = nil
		}
	}
	return call, cancel
}
