package modelbuf

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with modelbuf-specific helpers, so open, verify,
// and save operations log with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. If handler is nil, a
// text handler to stderr at info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that emits JSON records to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that emits human-readable records to
// stderr.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithSource tags the logger with the source a model came from (a path or
// blob name).
func (l *Logger) WithSource(source string) *Logger {
	return &Logger{Logger: l.Logger.With("source", source)}
}

// LogOpen logs the outcome of opening a model buffer.
func (l *Logger) LogOpen(ctx context.Context, source string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"source", source,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "open completed",
			"source", source,
			"size", size,
		)
	}
}

// LogVerify logs the outcome of a buffer verification.
func (l *Logger) LogVerify(ctx context.Context, rootType string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "verification failed",
			"root_type", rootType,
			"size", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "verification completed",
			"root_type", rootType,
			"size", size,
		)
	}
}

// LogSave logs the outcome of saving a model file.
func (l *Logger) LogSave(ctx context.Context, filename string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"filename", filename,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "model saved",
			"filename", filename,
			"size", size,
		)
	}
}
