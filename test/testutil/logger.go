package testutil

import (
	"sync"

	"github.com/arloliu/cqlboot/types"
)

// LogEntry is one line captured by a RecordingLogger.
type LogEntry struct {
	Level  string
	Msg    string
	Fields map[string]any
}

// Field returns a field value, or nil if absent.
func (e LogEntry) Field(key string) any {
	return e.Fields[key]
}

// RecordingLogger is a types.Logger that keeps every line in memory.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ types.Logger = (*RecordingLogger)(nil)

// NewRecordingLogger creates an empty recording logger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) Debug(msg string, keysAndValues ...any) {
	l.record("debug", msg, keysAndValues)
}

func (l *RecordingLogger) Info(msg string, keysAndValues ...any) {
	l.record("info", msg, keysAndValues)
}

func (l *RecordingLogger) Warn(msg string, keysAndValues ...any) {
	l.record("warn", msg, keysAndValues)
}

func (l *RecordingLogger) Error(msg string, keysAndValues ...any) {
	l.record("error", msg, keysAndValues)
}

func (l *RecordingLogger) record(level, msg string, keysAndValues []any) {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Fields: fields})
}

// Entries returns a copy of every captured line.
func (l *RecordingLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]LogEntry(nil), l.entries...)
}

// WithField returns the captured lines whose field key equals value.
func (l *RecordingLogger) WithField(key string, value any) []LogEntry {
	var out []LogEntry
	for _, e := range l.Entries() {
		if e.Fields[key] == value {
			out = append(out, e)
		}
	}

	return out
}

// Stages returns the stage of every line that carries one, in order.
func (l *RecordingLogger) Stages() []types.Stage {
	var out []types.Stage
	for _, e := range l.Entries() {
		if stage, ok := e.Fields["stage"].(types.Stage); ok {
			out = append(out, stage)
		}
	}

	return out
}
