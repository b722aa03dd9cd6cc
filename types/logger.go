package types

// Logger is the structured logger used by cqlboot.
//
// Each method takes a message followed by alternating key/value pairs.
// *slog.Logger and zap.SugaredLogger (via its w-suffixed methods wrapped
// in a thin adapter) satisfy it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}
