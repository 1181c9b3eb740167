package testutil

import (
	"context"
	"sync"

	"github.com/nimburion/catalog/pkg/observability/logger"
)

// RecordingLogger captures log entries for assertions.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry is one captured call.
type LogEntry struct {
	Level  string
	Msg    string
	Fields map[string]interface{}
}

func (l *RecordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

// With returns a logger sharing the same entry buffer.
func (l *RecordingLogger) With(args ...any) logger.Logger {
	return &childLogger{parent: l, fields: args}
}

func (l *RecordingLogger) WithContext(ctx context.Context) logger.Logger {
	if id := logger.RequestIDFromContext(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}

// Entries returns a snapshot of captured entries.
func (l *RecordingLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// Find returns the first entry with msg.
func (l *RecordingLogger) Find(msg string) (LogEntry, bool) {
	for _, e := range l.Entries() {
		if e.Msg == msg {
			return e, true
		}
	}
	return LogEntry{}, false
}

func (l *RecordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Fields: argsToMap(args)})
}

type childLogger struct {
	parent *RecordingLogger
	fields []any
}

func (c *childLogger) Debug(msg string, args ...any) { c.parent.record("debug", msg, c.merge(args)) }
func (c *childLogger) Info(msg string, args ...any)  { c.parent.record("info", msg, c.merge(args)) }
func (c *childLogger) Warn(msg string, args ...any)  { c.parent.record("warn", msg, c.merge(args)) }
func (c *childLogger) Error(msg string, args ...any) { c.parent.record("error", msg, c.merge(args)) }

func (c *childLogger) With(args ...any) logger.Logger {
	return &childLogger{parent: c.parent, fields: c.merge(args)}
}

func (c *childLogger) WithContext(ctx context.Context) logger.Logger {
	if id := logger.RequestIDFromContext(ctx); id != "" {
		return c.With("request_id", id)
	}
	return c
}

func (c *childLogger) merge(args []any) []any {
	out := make([]any, 0, len(c.fields)+len(args))
	out = append(out, c.fields...)
	return append(out, args...)
}

func argsToMap(args []any) map[string]interface{} {
	fields := make(map[string]interface{})
	for i := 0; i < len(args)-1; i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	return fields
}
