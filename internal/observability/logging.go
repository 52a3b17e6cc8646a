// Package observability carries structured log context (blog, operation, menu)
// through context.Context so nested calls log with consistent attributes.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/menusync/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	BlogID    int64
	Operation string
	MenuID    int64
	JobID     string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithBlogID adds a blog ID to the context.
func WithBlogID(ctx context.Context, blogID int64) context.Context {
	lc := extractLogContext(ctx)
	lc.BlogID = blogID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithOperation adds an operation name to the context.
func WithOperation(ctx context.Context, operation string) context.Context {
	lc := extractLogContext(ctx)
	lc.Operation = operation
	return context.WithValue(ctx, logContextKey, lc)
}

// WithMenuID adds a menu ID to the context.
func WithMenuID(ctx context.Context, menuID int64) context.Context {
	lc := extractLogContext(ctx)
	lc.MenuID = menuID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithJobID adds a scheduler job ID to the context.
func WithJobID(ctx context.Context, jobID string) context.Context {
	lc := extractLogContext(ctx)
	lc.JobID = jobID
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

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.BlogID != 0 {
		attrs = append(attrs, logfields.BlogID(lc.BlogID))
	}
	if lc.Operation != "" {
		attrs = append(attrs, logfields.Operation(lc.Operation))
	}
	if lc.MenuID != 0 {
		attrs = append(attrs, logfields.MenuID(lc.MenuID))
	}
	if lc.JobID != "" {
		attrs = append(attrs, logfields.JobID(lc.JobID))
	}

	return attrs
}

func logContext(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	slog.LogAttrs(ctx, level, msg, append(getLogAttrs(ctx), attrs...)...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelInfo, msg, attrs)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelWarn, msg, attrs)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelError, msg, attrs)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelDebug, msg, attrs)
}
