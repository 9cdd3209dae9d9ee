// Package logging carries request-scoped loggers through contexts and builds
// the process-wide logger for the planner service.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type contextKey struct{}

// ContextWithLogger returns a derived context that carries the provided logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger previously attached to the context.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}

// New builds the service logger. Production environments emit JSON lines for
// ingestion; everything else emits the human-readable text form.
func New(w io.Writer, environment string) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if strings.EqualFold(environment, "production") {
		return slog.New(slog.NewJSONHandler(w, options))
	}
	options.Level = slog.LevelDebug
	return slog.New(slog.NewTextHandler(w, options))
}
