package logging

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// NewRequestLoggerMiddleware attaches a request-scoped logger to the request
// context. Handlers and everything below them retrieve it with FromContext.
func NewRequestLoggerMiddleware(logger *slog.Logger) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			userAgent := r.UserAgent()
			if userAgent == "" {
				userAgent = "<missing>"
			}

			requestLogger := logger.With(
				slog.String("requestID", uuid.New().String()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("userAgent", userAgent),
			)

			next(w, r.WithContext(AddToContext(r.Context(), requestLogger)))
		}
	}
}
