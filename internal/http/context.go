package http

import (
	"context"
	"log/slog"

	"github.com/example/dayflow/internal/application"
	"github.com/example/dayflow/internal/logging"
)

type contextKey string

const sessionContextKey contextKey = "session"

// ContextWithSession returns a derived context carrying the resolved session.
func ContextWithSession(ctx context.Context, session application.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext extracts the resolved session from context if available.
func SessionFromContext(ctx context.Context) (application.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(application.Session)
	return session, ok
}

// ContextWithLogger attaches a request-scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts a logger previously attached to the context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
