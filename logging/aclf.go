// File: logging/aclf.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// The Apache Combined Log Format sink is independent of the leveled
// sinks: its own destination (file or syslog with the LOCAL1 facility)
// and its own rotation policy, by line count rather than size. The file
// target sits on top of lumberjack, which handles the close/rename/reopen
// mechanics when the line counter wraps.

package logging

import (
	"fmt"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// MaxACLFLogLines is the rotation threshold: the access log file is
// reopened after this many lines.
const MaxACLFLogLines = 100000

type aclfFlags uint8

const (
	aclfEnabled aclfFlags = 0x01
	aclfFile    aclfFlags = 0x02
	aclfSyslog  aclfFlags = 0x04
)

type aclfState struct {
	flags     aclfFlags
	file      *lumberjack.Logger
	lineCount int
	opens     int
}

func (l *Logger) setACLFFlags(flags aclfFlags) {
	l.mu.Lock()
	l.aclf.flags |= flags
	l.mu.Unlock()
}

// SetACLFOutputFile configures the access-log destination. A target with
// a "syslog:" prefix routes lines to syslog instead of a file.
func (l *Logger) SetACLFOutputFile(target string) {
	if len(target) >= 7 && target[:7] == "syslog:" {
		l.Log(LevelStatus, "Weblogs are send to SYSLOG!")
		l.setACLFFlags(aclfSyslog)
	} else {
		l.mu.Lock()
		l.aclf.file = &lumberjack.Logger{Filename: target}
		l.mu.Unlock()
		l.setACLFFlags(aclfFile)
	}
	l.setACLFFlags(aclfEnabled)
}

// IsACLFEnabled reports whether access logging is active; the connection
// core checks this before spending cycles building the line.
func (l *Logger) IsACLFEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.aclf.flags&aclfEnabled != 0
}

// ACLFLog emits one pre-formatted access log line to the configured
// destination, rotating the file every MaxACLFLogLines lines.
func (l *Logger) ACLFLog(format string, args ...any) {
	if !l.IsACLFEnabled() {
		return
	}
	line := fmt.Sprintf(format, args...)

	l.Debug(DebugWebserver, "Web ACLF: %s", line)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.aclf.flags&aclfFile != 0 && l.aclf.file != nil {
		l.aclf.lineCount++
		if l.aclf.lineCount > MaxACLFLogLines {
			if err := l.aclf.file.Rotate(); err != nil {
				fmt.Fprintln(os.Stderr, "Error opening Apache Combined LogFormat webserver log file...")
			}
			l.aclf.opens++
			l.aclf.lineCount = 1
		} else if l.aclf.lineCount == 1 {
			l.aclf.opens++
		}
		fmt.Fprintln(l.aclf.file, line)
	}

	if l.useSyslog && l.sys != nil && l.aclf.flags&aclfSyslog != 0 {
		l.sys.emitACLF(line)
	}
}

// ACLFLinesLogged returns how many lines have gone to the current file
// since its last open.
func (l *Logger) ACLFLinesLogged() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.aclf.lineCount
}

// ACLFOpens returns how many times the access log file has been opened
// (initial open plus rotations).
func (l *Logger) ACLFOpens() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.aclf.opens
}

func (l *Logger) closeACLFLocked() {
	if l.aclf.file != nil {
		l.aclf.file.Close()
		l.aclf.file = nil
	}
}
