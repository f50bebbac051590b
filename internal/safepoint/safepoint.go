// Package safepoint provides the cooperative yield hook polled by slow-path
// decode loops, so adversarial input cannot monopolize a thread between
// scheduling points.
package safepoint

import (
	"runtime"
	"sync/atomic"
)

// Interval is the number of loop iterations between polls.
const Interval = 4096

var hook atomic.Pointer[func()]

func init() {
	f := runtime.Gosched
	hook.Store(&f)
}

// SetHook replaces the poll hook. A nil hook disables polling.
func SetHook(f func()) {
	if f == nil {
		f = func() {}
	}
	hook.Store(&f)
}

// Poll invokes the hook once every Interval calls, keyed by the caller's
// loop counter.
func Poll(counter int) {
	if counter%Interval == Interval-1 {
		(*hook.Load())()
	}
}
