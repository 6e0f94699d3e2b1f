//go:build windows || plan9

// File: logging/syslog_stub.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package logging

// syslogSink abstracts the platform syslog; this platform has none, so
// enabling syslog only suppresses timestamps.
type syslogSink interface {
	emit(level Level, body string)
	emitACLF(line string)
	close()
}

func newSyslogSink() syslogSink { return nil }
