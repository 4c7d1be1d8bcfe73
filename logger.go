package mudgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with mudgo-specific context.
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
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// LogUpdate logs a synchronization pass.
func (l *Logger) LogUpdate(ctx context.Context, obs, vars, mods int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "update completed",
			"obs", obs,
			"vars", vars,
			"modalities", mods,
		)
	}
}

// LogIntersect logs an intersection pass.
func (l *Logger) LogIntersect(ctx context.Context, axis Axis, kept int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "intersect failed",
			"axis", axis.String(),
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "intersect completed",
			"axis", axis.String(),
			"kept", kept,
		)
	}
}

// LogSave logs a container write.
func (l *Logger) LogSave(ctx context.Context, mods int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "save completed",
			"modalities", mods,
		)
	}
}

// LogOpen logs a container read.
func (l *Logger) LogOpen(ctx context.Context, backed bool, mods int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"backed", backed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "open completed",
			"backed", backed,
			"modalities", mods,
		)
	}
}

// LogMaterialize logs a backed modality load.
func (l *Logger) LogMaterialize(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "materialize failed",
			"modality", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "materialize completed",
			"modality", name,
		)
	}
}
