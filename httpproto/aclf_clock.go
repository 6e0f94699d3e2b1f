// File: httpproto/aclf_clock.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package httpproto

import "time"

// ACLFTimestamp is a wall-clock instant split into whole seconds and a
// millisecond remainder, matching the access log's %S.%ms field.
type ACLFTimestamp struct {
	Time   time.Time
	Millis int
}

func aclfNowPortable() ACLFTimestamp {
	now := time.Now()
	return ACLFTimestamp{
		Time:   now,
		Millis: now.Nanosecond() / int(time.Millisecond),
	}
}
