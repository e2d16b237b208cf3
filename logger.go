package rowdb

// Logger matches the method set of slog.Logger, so a *slog.Logger can be
// passed directly. See the logger package for adapters wrapping other
// common logging libraries.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// DiscardLogger is the default logger that compiles to a no-op.
type DiscardLogger struct{}

func (d DiscardLogger) Error(string, ...any) {}

func (d DiscardLogger) Warn(string, ...any) {}

func (d DiscardLogger) Info(string, ...any) {}
