// Package logging carries a request-scoped slog logger through the context
// so adapters and the orchestrator never take a logger parameter.
package logging

import (
	"context"
	"log/slog"
	"os"
)

type requestLoggerContextKey struct{}

// FromContext returns the logger attached by the request middleware. Code
// running outside a request (startup, detached refreshes) gets a fallback
// logger tagged so its lines are recognizable.
func FromContext(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(requestLoggerContextKey{}).(*slog.Logger)
	if !ok || logger == nil {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("logger", "fallback"))
	}
	return logger
}

func AddToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, requestLoggerContextKey{}, logger)
}

// AddMetaToContext annotates the context's logger with extra attributes so
// they appear on every line logged below this point.
func AddMetaToContext(ctx context.Context, args ...slog.Attr) context.Context {
	logger := FromContext(ctx)

	anySlice := make([]any, len(args))
	for i, arg := range args {
		anySlice[i] = arg
	}

	return AddToContext(ctx, logger.With(anySlice...))
}
