package http

import (
	"context"
	"log/slog"
)

// defaultLogger guards against nil loggers so handlers can be constructed
// bare in tests.
func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger prefers the request-scoped logger attached by RequestLogger,
// falling back to the handler's own, tagged with the handler name and the
// operation being served.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handler, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	logger = logger.With("handler", handler)
	if operation != "" {
		logger = logger.With("operation", operation)
	}
	if len(attrs) > 0 {
		logger = logger.With(attrs...)
	}
	return logger
}
