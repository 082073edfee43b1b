package szgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with szgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithShape adds the array dimensions to the logger.
func (l *Logger) WithShape(dims []int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dims", dims),
	}
}

// WithErrorBound adds the absolute error bound to the logger.
func (l *Logger) WithErrorBound(eb float64) *Logger {
	return &Logger{
		Logger: l.Logger.With("error_bound", eb),
	}
}

// WithBatch adds a batch index field to the logger.
func (l *Logger) WithBatch(index int) *Logger {
	return &Logger{
		Logger: l.Logger.With("batch", index),
	}
}

// LogCompress logs a compress operation.
func (l *Logger) LogCompress(ctx context.Context, elements, compressedBytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "compress failed",
			"elements", elements,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "compress completed",
			"elements", elements,
			"bytes", compressedBytes,
		)
	}
}

// LogDecompress logs a decompress operation.
func (l *Logger) LogDecompress(ctx context.Context, compressedBytes, elements int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "decompress failed",
			"bytes", compressedBytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "decompress completed",
			"bytes", compressedBytes,
			"elements", elements,
		)
	}
}

// LogBatch logs a batch compress operation.
func (l *Logger) LogBatch(ctx context.Context, count int, err error) {
	if err != nil {
		l.WarnContext(ctx, "batch compress failed",
			"count", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "batch compress completed",
			"count", count,
		)
	}
}
