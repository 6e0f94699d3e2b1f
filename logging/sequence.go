// File: logging/sequence.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package logging

import "strings"

// Sequence mode accumulates multiple fragments into one atomic log line.
// The caller owns the begin/end bracket; interleaving sequences across
// goroutines is not supported.

// BeginSequence enters sequence mode with an empty accumulator.
func (l *Logger) BeginSequence() {
	l.mu.Lock()
	l.inSequence = true
	l.sequence.Reset()
	l.mu.Unlock()
}

// SequenceAdd appends a fragment followed by a newline. Ignored outside
// sequence mode.
func (l *Logger) SequenceAdd(fragment string) {
	l.mu.Lock()
	if l.inSequence {
		l.sequence.WriteString(fragment)
		l.sequence.WriteByte('\n')
	}
	l.mu.Unlock()
}

// SequenceAddNoLF appends a fragment without a newline. Ignored outside
// sequence mode.
func (l *Logger) SequenceAddNoLF(fragment string) {
	l.mu.Lock()
	if l.inSequence {
		l.sequence.WriteString(fragment)
	}
	l.mu.Unlock()
}

// EndSequence emits the accumulated body (trailing newline trimmed) as a
// single line at level and leaves sequence mode. Ignored if no sequence
// is open.
func (l *Logger) EndSequence(level Level) {
	l.mu.Lock()
	if !l.inSequence {
		l.mu.Unlock()
		return
	}
	message := strings.TrimSuffix(l.sequence.String(), "\n")
	l.sequence.Reset()
	l.inSequence = false
	if l.logFlags&level != 0 {
		l.logLocked(level, message)
	}
	l.mu.Unlock()
}
