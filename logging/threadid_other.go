//go:build !linux

// File: logging/threadid_other.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package logging

import "os"

// currentThreadID falls back to the process id where per-thread ids are
// not exposed.
func currentThreadID() int {
	return os.Getpid()
}
