// File: logging/flags.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package logging

import (
	"strconv"
	"strings"
)

// SetLogFlags parses a comma-separated flag list. Supported tokens:
// all,normal,status,error,debug. A numeric token is taken as a raw
// bitmask and ends parsing. Unknown tokens are skipped. Zero parsed
// flags fall back to Status|Error.
func (l *Logger) SetLogFlags(flags string) {
	var parsed Level
	for _, tok := range strings.Split(flags, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if n, err := strconv.ParseUint(tok, 10, 32); err == nil {
			parsed = Level(n)
			break
		}
		switch tok {
		case "all":
			parsed |= LevelAll
		case "normal":
			parsed |= LevelNorm
		case "status":
			parsed |= LevelStatus
		case "error":
			parsed |= LevelError
		case "debug":
			parsed |= LevelDebug
		default:
			continue // invalid flag, skip but keep processing the others
		}
	}
	if parsed == 0 {
		parsed = LevelStatus | LevelError
	}
	l.SetLogFlagMask(parsed)
}

// SetLogFlagMask installs a pre-computed level bitmask.
func (l *Logger) SetLogFlagMask(flags Level) {
	l.mu.Lock()
	l.logFlags = flags
	l.mu.Unlock()
}

// LogFlags returns the current level bitmask.
func (l *Logger) LogFlags() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logFlags
}

// SetDebugFlags parses a comma-separated debug category list. Supported
// tokens: all,normal,hardware,received,webserver,eventsystem,python,
// thread_id,sql,auth. A numeric token is a raw bitmask and ends parsing;
// unknown tokens are skipped. Enabling webserver debugging also enables
// the ACLF sink, but only if the Debug log level is already on when the
// call starts; enabling any category implicitly enables the Debug log
// level with an announcement.
func (l *Logger) SetDebugFlags(flags string) {
	var parsed DebugLevel
	for _, tok := range strings.Split(flags, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if n, err := strconv.ParseUint(tok, 10, 32); err == nil {
			parsed = DebugLevel(n)
			break
		}
		switch tok {
		case "all":
			parsed |= DebugAll
		case "normal":
			parsed |= DebugNorm
		case "hardware":
			parsed |= DebugHardware
		case "received":
			parsed |= DebugReceived
		case "webserver":
			parsed |= DebugWebserver
		case "eventsystem":
			parsed |= DebugEventsystem
		case "python":
			parsed |= DebugPython
		case "thread_id":
			parsed |= DebugThreadIDs
		case "sql":
			parsed |= DebugSQL
		case "auth":
			parsed |= DebugAuth
		default:
			continue // invalid flag, skip but keep processing the others
		}
	}
	l.SetDebugFlagMask(parsed)

	if l.IsDebugLevelEnabled(DebugWebserver) {
		l.setACLFFlags(aclfEnabled)
	}
	if parsed != 0 && !l.IsLevelEnabled(LevelDebug) {
		l.mu.Lock()
		l.logFlags |= LevelDebug
		l.mu.Unlock()
		l.Log(LevelStatus, "Enabling Debug logging!")
	}
}

// SetDebugFlagMask installs a pre-computed debug bitmask.
func (l *Logger) SetDebugFlagMask(flags DebugLevel) {
	l.mu.Lock()
	l.debugFlags = flags
	l.mu.Unlock()
}

// DebugFlags returns the current debug bitmask.
func (l *Logger) DebugFlags() DebugLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debugFlags
}

// EmitLogFlags renders a level bitmask back into its canonical token
// list, the inverse of SetLogFlags for masks within the documented set.
func EmitLogFlags(flags Level) string {
	var toks []string
	if flags&LevelNorm != 0 {
		toks = append(toks, "normal")
	}
	if flags&LevelStatus != 0 {
		toks = append(toks, "status")
	}
	if flags&LevelError != 0 {
		toks = append(toks, "error")
	}
	if flags&LevelDebug != 0 {
		toks = append(toks, "debug")
	}
	return strings.Join(toks, ",")
}

// EmitDebugFlags renders a debug bitmask back into its canonical token
// list.
func EmitDebugFlags(flags DebugLevel) string {
	var toks []string
	if flags&DebugNorm != 0 {
		toks = append(toks, "normal")
	}
	if flags&DebugHardware != 0 {
		toks = append(toks, "hardware")
	}
	if flags&DebugReceived != 0 {
		toks = append(toks, "received")
	}
	if flags&DebugWebserver != 0 {
		toks = append(toks, "webserver")
	}
	if flags&DebugEventsystem != 0 {
		toks = append(toks, "eventsystem")
	}
	if flags&DebugPython != 0 {
		toks = append(toks, "python")
	}
	if flags&DebugThreadIDs != 0 {
		toks = append(toks, "thread_id")
	}
	if flags&DebugSQL != 0 {
		toks = append(toks, "sql")
	}
	if flags&DebugAuth != 0 {
		toks = append(toks, "auth")
	}
	return strings.Join(toks, ",")
}
