// File: timer/pair.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package timer

import "time"

// Pair bundles the two independent timers every connection carries: a read
// timer that bounds how long the core waits for the next byte on an idle
// keep-alive connection, and an abandoned timer that bounds how long a
// connection may sit between full request/response cycles before the core
// gives up on it outright. The two race independently; whichever fires
// first drives the connection to Stop, except that a read timer firing on
// a keep-alive WebSocket connection sends a Ping instead.
type Pair struct {
	Read      *Timer
	Abandoned *Timer
}

// NewPair returns a Pair with both timers idle.
func NewPair() *Pair {
	return &Pair{Read: New(), Abandoned: New()}
}

// ArmRead starts (or restarts) the read timer.
func (p *Pair) ArmRead(d time.Duration, cb Callback) {
	p.Read.AsyncWait(d, cb)
}

// CancelRead disarms the read timer, used once a read actually completes.
func (p *Pair) CancelRead() {
	p.Read.Cancel()
}

// ArmAbandoned starts (or restarts) the abandoned timer. The core rearms
// this after each completed request/response cycle on a keep-alive
// connection so a client that stops responding mid-idle is still reaped.
func (p *Pair) ArmAbandoned(d time.Duration, cb Callback) {
	p.Abandoned.AsyncWait(d, cb)
}

// CancelAbandoned disarms the abandoned timer, used once the connection is
// about to be torn down for some other reason so the timer callback does
// not also race to stop it.
func (p *Pair) CancelAbandoned() {
	p.Abandoned.Cancel()
}

// CancelAll disarms both timers, used from Stop.
func (p *Pair) CancelAll() {
	p.Read.Cancel()
	p.Abandoned.Cancel()
}
