package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newQuietLogger() *Logger {
	l := New()
	l.SetDaemon(true) // keep test output off the console sink
	return l
}

func TestLogFlagsRoundTrip(t *testing.T) {
	masks := []Level{
		LevelStatus | LevelError,
		LevelNorm,
		LevelNorm | LevelStatus | LevelError | LevelDebug,
		LevelDebug | LevelError,
	}
	for _, mask := range masks {
		l := newQuietLogger()
		l.SetLogFlags(EmitLogFlags(mask))
		if got := l.LogFlags(); got != mask {
			t.Fatalf("parse(emit(%#x)) = %#x", mask, got)
		}
	}
}

func TestDebugFlagsRoundTrip(t *testing.T) {
	masks := []DebugLevel{
		DebugNorm,
		DebugHardware | DebugSQL,
		DebugNorm | DebugReceived | DebugAuth | DebugThreadIDs,
	}
	for _, mask := range masks {
		l := newQuietLogger()
		l.SetDebugFlags(EmitDebugFlags(mask))
		if got := l.DebugFlags(); got != mask {
			t.Fatalf("parse(emit(%#x)) = %#x", mask, got)
		}
	}
}

func TestSetLogFlagsNumericShortCircuits(t *testing.T) {
	l := newQuietLogger()
	l.SetLogFlags("6,normal") // numeric token wins, parsing ends
	if got := l.LogFlags(); got != LevelStatus|LevelError {
		t.Fatalf("got %#x", got)
	}
}

func TestSetLogFlagsZeroFallsBack(t *testing.T) {
	l := newQuietLogger()
	l.SetLogFlags("bogus,unknown")
	if got := l.LogFlags(); got != LevelStatus|LevelError {
		t.Fatalf("got %#x want Status|Error fallback", got)
	}
}

func TestSetDebugFlagsEnablesDebugLevel(t *testing.T) {
	l := newQuietLogger()
	l.SetLogFlagMask(LevelStatus | LevelError)
	l.SetDebugFlags("webserver")
	if !l.IsLevelEnabled(LevelDebug) {
		t.Fatal("Debug level should be implicitly enabled")
	}
	if !l.IsDebugLevelEnabled(DebugWebserver) {
		t.Fatal("webserver debug category should be enabled")
	}
	// the ACLF gate is checked before Debug is implicitly enabled, so it
	// opens on the next SetDebugFlags call, not this one
	if l.IsACLFEnabled() {
		t.Fatal("ACLF should not open on the first call")
	}
	l.SetDebugFlags("webserver")
	if !l.IsACLFEnabled() {
		t.Fatal("webserver debugging should enable the ACLF sink once Debug is on")
	}
	// the announcement line landed in the Status ring
	lines := l.GetLog(LevelStatus, time.Time{})
	if len(lines) != 1 || !strings.Contains(lines[0].Message, "Enabling Debug logging!") {
		t.Fatalf("announcement missing: %+v", lines)
	}
}

func TestGetLogFiltersAndSorts(t *testing.T) {
	l := newQuietLogger()
	l.SetLogFlagMask(LevelAll)
	l.Log(LevelNorm, "first")
	cut := time.Now()
	time.Sleep(2 * time.Millisecond)
	l.Log(LevelStatus, "second")
	l.Log(LevelError, "third")

	lines := l.GetLog(LevelAll, cut)
	for _, ln := range lines {
		if !ln.Time.After(cut) {
			t.Fatalf("line %q violates logtime > since", ln.Message)
		}
	}
	for i := 1; i < len(lines); i++ {
		if lines[i].Time.Before(lines[i-1].Time) {
			t.Fatal("result not sorted ascending by time")
		}
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines want 2", len(lines))
	}
}

func TestRingBufferCapacity(t *testing.T) {
	l := newQuietLogger()
	for i := 0; i < maxLogLineBuffer+20; i++ {
		l.Log(LevelStatus, "line %d", i)
	}
	lines := l.GetLog(LevelStatus, time.Time{})
	if len(lines) != maxLogLineBuffer {
		t.Fatalf("ring holds %d lines want %d", len(lines), maxLogLineBuffer)
	}
	if !strings.Contains(lines[0].Message, "line 20") {
		t.Fatalf("oldest retained line: %q", lines[0].Message)
	}
}

func TestNotificationDrain(t *testing.T) {
	l := newQuietLogger()
	l.ForwardErrorsToNotificationSystem(true)
	l.Log(LevelError, "boom")

	select {
	case <-l.Notifications():
	case <-time.After(time.Second):
		t.Fatal("no wakeup for first error")
	}

	drained := l.GetNotificationLogs()
	if len(drained) != 1 || !strings.Contains(drained[0].Message, "boom") {
		t.Fatalf("drain: %+v", drained)
	}
	if got := l.GetNotificationLogs(); len(got) != 0 {
		t.Fatalf("second drain not empty: %+v", got)
	}

	// within the 5 s window no further wakeup is signalled
	l.Log(LevelError, "boom again")
	select {
	case <-l.Notifications():
		t.Fatal("wakeup inside the rate-limit window")
	case <-time.After(50 * time.Millisecond):
	}
	if got := l.GetNotificationLogs(); len(got) != 1 {
		t.Fatalf("error line should still be buffered: %+v", got)
	}
}

func TestSequenceMode(t *testing.T) {
	l := newQuietLogger()
	l.BeginSequence()
	l.SequenceAdd("alpha")
	l.SequenceAddNoLF("beta")
	l.SequenceAddNoLF("gamma")
	l.EndSequence(LevelStatus)

	lines := l.GetLog(LevelStatus, time.Time{})
	if len(lines) != 1 {
		t.Fatalf("got %d lines want 1", len(lines))
	}
	if !strings.Contains(lines[0].Message, "alpha\nbetagamma") {
		t.Fatalf("sequence body: %q", lines[0].Message)
	}
	if strings.HasSuffix(lines[0].Message, "\n") {
		t.Fatal("trailing newline not trimmed")
	}

	// add outside a sequence is ignored
	l.SequenceAdd("stray")
	l.EndSequence(LevelStatus)
	if got := l.GetLog(LevelStatus, time.Time{}); len(got) != 1 {
		t.Fatalf("stray add emitted a line: %d", len(got))
	}
}

func TestLinePrefixFormat(t *testing.T) {
	l := newQuietLogger()
	l.SetLogFlagMask(LevelAll)
	l.Log(LevelError, "the failure")
	lines := l.GetLog(LevelError, time.Time{})
	if len(lines) != 1 {
		t.Fatalf("got %d lines", len(lines))
	}
	msg := lines[0].Message
	// "2006-01-02 15:04:05.000  Error: the failure"
	if len(msg) < colorSplit || msg[colorSplit:] != "Error: the failure" {
		t.Fatalf("line shape: %q", msg)
	}
	if msg[10] != ' ' || msg[23] != ' ' || msg[24] != ' ' {
		t.Fatalf("timestamp prefix shape: %q", msg)
	}
}

func TestOutputFileSink(t *testing.T) {
	l := newQuietLogger()
	path := filepath.Join(t.TempDir(), "out.log")
	l.SetOutputFile(path)
	l.Log(LevelStatus, "to file")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "Status: to file") {
		t.Fatalf("file content: %q", data)
	}
}

func TestZapDebugRidesDebugGate(t *testing.T) {
	l := newQuietLogger()
	zl := l.ZapDebug(DebugHardware)

	zl.Info("suppressed while the category is off")
	if got := l.GetLog(LevelDebug, time.Time{}); len(got) != 0 {
		t.Fatalf("line emitted with debug off: %+v", got)
	}

	l.SetLogFlagMask(LevelAll)
	l.SetDebugFlagMask(DebugHardware)
	zl.Info("sensor probe")
	lines := l.GetLog(LevelDebug, time.Time{})
	if len(lines) != 1 || !strings.Contains(lines[0].Message, "sensor probe") {
		t.Fatalf("zap line missing: %+v", lines)
	}
	if !strings.Contains(lines[0].Message, "Debug: ") {
		t.Fatalf("zap line bypassed the formatter: %q", lines[0].Message)
	}
}
