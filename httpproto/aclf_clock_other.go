//go:build !linux

// File: httpproto/aclf_clock_other.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package httpproto

// ACLFNow captures the access-log timestamp from the runtime clock on
// platforms without a direct CLOCK_REALTIME path.
func ACLFNow() ACLFTimestamp {
	return aclfNowPortable()
}
