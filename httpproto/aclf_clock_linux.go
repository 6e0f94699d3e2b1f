//go:build linux

// File: httpproto/aclf_clock_linux.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package httpproto

import (
	"time"

	"golang.org/x/sys/unix"
)

// ACLFNow captures the access-log timestamp from CLOCK_REALTIME, falling
// back to gettimeofday if the clock read fails. The millisecond component
// is kept separately so the formatted line carries exactly three digits.
func ACLFNow() ACLFTimestamp {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &ts); err == nil {
		return ACLFTimestamp{
			Time:   time.Unix(ts.Sec, 0),
			Millis: int(ts.Nsec / int64(time.Millisecond)),
		}
	}
	var tv unix.Timeval
	if err := unix.Gettimeofday(&tv); err == nil {
		return ACLFTimestamp{
			Time:   time.Unix(tv.Sec, 0),
			Millis: int(tv.Usec / 1000),
		}
	}
	return aclfNowPortable()
}
