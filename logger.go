package coreset

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with coreset-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogProcess logs a completed streaming pass.
func (l *Logger) LogProcess(ctx context.Context, points uint64, facilities int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "streaming pass failed",
			"points", points,
			"facilities", facilities,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "streaming pass completed",
			"points", points,
			"facilities", facilities,
			"duration", duration,
		)
	}
}

// LogDoubling logs a threshold-doubling event.
func (l *Logger) LogDoubling(ctx context.Context, threshold float64, before, after, merged int) {
	l.DebugContext(ctx, "threshold doubled",
		"threshold", threshold,
		"before", before,
		"after", after,
		"merged", merged,
	)
}

// LogContraction logs a contraction pass.
func (l *Logger) LogContraction(ctx context.Context, before, after int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "contraction failed",
			"before", before,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "contraction completed",
			"before", before,
			"after", after,
			"duration", duration,
		)
	}
}

// LogEvaluate logs a dispatch evaluation.
func (l *Logger) LogEvaluate(ctx context.Context, points int, meanCost float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "evaluation failed",
			"points", points,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "evaluation completed",
			"points", points,
			"mean_cost", meanCost,
		)
	}
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"name", name,
		)
	}
}
