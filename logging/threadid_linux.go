//go:build linux

// File: logging/threadid_linux.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package logging

import "golang.org/x/sys/unix"

// currentThreadID returns the kernel thread id of the OS thread the
// calling goroutine happens to run on, rendered into the [%04x] prefix
// when Debug|ThreadIDs logging is enabled.
func currentThreadID() int {
	return unix.Gettid()
}
