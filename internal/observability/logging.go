// Package observability carries build-scoped log context through a context.Context.
package observability

import (
	"context"
	"log/slog"

	"github.com/sleep909/multipage/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	BuildID string
	Stage   string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithBuildID adds a build ID to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	lc := extractLogContext(ctx)
	lc.BuildID = buildID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

// Attrs returns slog attributes for the context's LogContext.
func Attrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}
	if lc.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(lc.BuildID))
	}
	if lc.Stage != "" {
		attrs = append(attrs, slog.String("stage", lc.Stage))
	}
	return attrs
}

// InfoContext logs an info message on logger with context information.
func InfoContext(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, logger, slog.LevelInfo, msg, attrs)
}

// WarnContext logs a warning message on logger with context information.
func WarnContext(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, logger, slog.LevelWarn, msg, attrs)
}

// ErrorContext logs an error message on logger with context information.
func ErrorContext(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, logger, slog.LevelError, msg, attrs)
}

// DebugContext logs a debug message on logger with context information.
func DebugContext(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, logger, slog.LevelDebug, msg, attrs)
}

func logAttrs(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, attrs []slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	all := append(Attrs(ctx), attrs...)
	logger.LogAttrs(ctx, level, msg, all...)
}
