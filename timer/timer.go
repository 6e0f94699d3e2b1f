// File: timer/timer.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package timer provides a cancellable one-shot timer whose fired/cancelled
// outcome is unambiguous even when Cancel and the fire race. A generation
// counter disambiguates: Cancel bumps it, and the fired goroutine only
// reports a genuine expiry if the generation it captured at AsyncWait time
// is still current; a superseded wait reports ErrTimerCancelled instead.

package timer

import (
	"sync"
	"time"
)

// ErrTimerCancelled is passed to a Timer's callback when Cancel ran before
// the deadline elapsed.
type ErrTimerCancelled struct{}

func (ErrTimerCancelled) Error() string { return "timer: wait cancelled" }

// Callback receives nil on a genuine expiry, or ErrTimerCancelled{} when
// Cancel preempted it.
type Callback func(err error)

// Timer is a single-shot, reusable, cancellable timer. It is not safe for
// concurrent use by multiple goroutines calling AsyncWait/Cancel at the
// same time without external synchronization; the connection core owns
// each Timer from a single goroutine at a time.
type Timer struct {
	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	pending    Callback
}

// New creates a Timer with no pending wait.
func New() *Timer {
	return &Timer{}
}

// AsyncWait arms the timer to fire after d and invoke cb from a new
// goroutine. Any previously pending wait is implicitly cancelled.
func (t *Timer) AsyncWait(d time.Duration, cb Callback) {
	t.mu.Lock()
	t.generation++
	gen := t.generation
	t.pending = cb
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		fired := gen == t.generation
		t.mu.Unlock()
		if fired {
			cb(nil)
		} else {
			cb(ErrTimerCancelled{})
		}
	})
	t.mu.Unlock()
}

// Cancel disarms the timer. If the stop wins the race the pending wait's
// callback is invoked from a new goroutine with ErrTimerCancelled; if the
// fire was already scheduled, the callback runs but observes
// ErrTimerCancelled instead of a nil error. Either way the callback runs
// once and never sees a genuine expiry. Safe to call when no wait is
// pending.
func (t *Timer) Cancel() {
	t.mu.Lock()
	t.generation++
	var cb Callback
	if t.timer != nil && t.timer.Stop() {
		cb = t.pending
	}
	t.pending = nil
	t.mu.Unlock()
	if cb != nil {
		go cb(ErrTimerCancelled{})
	}
}

// Reset re-arms the timer with a new duration, equivalent to Cancel
// followed by AsyncWait but without the intervening ErrTimerCancelled
// callback invocation for the superseded wait — the generation bump alone
// suppresses the stale timer's fire, and the new AsyncWait installs the
// one callback that will actually run.
func (t *Timer) Reset(d time.Duration, cb Callback) {
	t.AsyncWait(d, cb)
}
