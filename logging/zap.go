// File: logging/zap.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Structured debug logging rides on zap: callers that want typed fields
// (the hardware/received/webserver diagnostic paths) get a *zap.Logger
// whose Core renders fields with zap's console encoder and then funnels
// the finished line through the ordinary Debug path, so the line shape,
// sinks, and rings stay identical to plain Debug calls.

package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapCore struct {
	logger   *Logger
	category DebugLevel
	enc      zapcore.Encoder
}

func newZapCore(l *Logger, category DebugLevel) *zapCore {
	cfg := zapcore.EncoderConfig{
		// Time, level, and caller are omitted: the logger's own line
		// formatter supplies the prefix.
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	return &zapCore{logger: l, category: category, enc: zapcore.NewConsoleEncoder(cfg)}
}

func (c *zapCore) Enabled(zapcore.Level) bool {
	return c.logger.IsDebugLevelEnabled(c.category)
}

func (c *zapCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &zapCore{logger: c.logger, category: c.category, enc: c.enc.Clone()}
	for i := range fields {
		fields[i].AddTo(clone.enc)
	}
	return clone
}

func (c *zapCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *zapCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	line := buf.String()
	buf.Free()
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	c.logger.Debug(c.category, "%s", line)
	return nil
}

func (c *zapCore) Sync() error { return nil }

// ZapDebug returns a zap logger bound to one debug category. Lines it
// emits are admitted under the same Debug+category gate as l.Debug and
// land in the same sinks.
func (l *Logger) ZapDebug(category DebugLevel) *zap.Logger {
	return zap.New(newZapCore(l, category))
}
