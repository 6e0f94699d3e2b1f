//go:build !windows && !plan9

// File: logging/syslog_posix.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package logging

import "log/syslog"

// syslogSink abstracts the platform syslog so the logger compiles on
// Windows, where the sink is a stub.
type syslogSink interface {
	emit(level Level, body string)
	emitACLF(line string)
	close()
}

type posixSyslog struct {
	w    *syslog.Writer
	aclf *syslog.Writer
}

func newSyslogSink() syslogSink {
	w, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, "connd")
	if err != nil {
		return nil
	}
	aclf, err := syslog.New(syslog.LOG_INFO|syslog.LOG_LOCAL1, "connd")
	if err != nil {
		aclf = nil
	}
	return &posixSyslog{w: w, aclf: aclf}
}

func (s *posixSyslog) emit(level Level, body string) {
	switch {
	case level&LevelError != 0:
		s.w.Err(body)
	case level&LevelStatus != 0:
		s.w.Notice(body)
	default:
		s.w.Info(body)
	}
}

func (s *posixSyslog) emitACLF(line string) {
	if s.aclf != nil {
		s.aclf.Info(line)
	}
}

func (s *posixSyslog) close() {
	s.w.Close()
	if s.aclf != nil {
		s.aclf.Close()
	}
}
