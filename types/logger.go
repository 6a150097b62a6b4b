package types

// Logger defines methods for structured logging.
//
// The library logs protocol events through this interface: round completion,
// subscriber arrival and departure, forwarded cancellations. Any structured
// logger with key-value fields fits; a log/slog adapter ships with the module
// and a nop logger is used when none is configured.
type Logger interface {
	// Debug logs fine-grained protocol events with key-value fields.
	Debug(msg string, keysAndValues ...any)

	// Info logs notable lifecycle events with key-value fields.
	Info(msg string, keysAndValues ...any)

	// Warn logs recoverable conditions, such as a failed production step,
	// with key-value fields.
	Warn(msg string, keysAndValues ...any)

	// Error logs failures with key-value fields.
	Error(msg string, keysAndValues ...any)

	// Fatal logs an unrecoverable failure and then calls os.Exit(1).
	Fatal(msg string, keysAndValues ...any)
}
