package ports

import (
	"log/slog"
	"net/http"

	"github.com/hvidsten/skylight/internal/logging"
	"github.com/hvidsten/skylight/internal/ratelimiting"
	"github.com/hvidsten/skylight/internal/reporting"
)

func NewRateLimitMiddleware(rateLimiter ratelimiting.RequestRateLimiter, onLimitExceeded http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Consume(r) {
				onLimitExceeded(w, r)
				return
			}

			next(w, r)
		}
	}
}

func ComposeMiddlewares(middlewares ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	if len(middlewares) == 1 {
		return middlewares[0]
	}
	first := middlewares[0]
	rest := ComposeMiddlewares(middlewares[1:]...)
	return func(h http.HandlerFunc) http.HandlerFunc {
		return first(rest(h))
	}
}

// standardMiddleware is the stack shared by every data endpoint: request
// logging, error reporting, CORS, metrics and a per-IP rate limit.
func standardMiddleware(
	component string,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
	allowedOrigins *DomainSuffixes,
) func(http.HandlerFunc) http.HandlerFunc {
	ipRateLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(4),
		ratelimiting.BurstSize(240),
	)
	requestLimiter := ratelimiting.NewRequestBasedRateLimiter(ipRateLimiter, ratelimiting.IPKeyFunc)

	onLimitExceeded := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success":false,"cause":"rate limit exceeded"}`))
	}

	return ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware(component),
		BuildCORSMiddleware(allowedOrigins),
		buildMetricsMiddleware(),
		NewRateLimitMiddleware(requestLimiter, onLimitExceeded),
	)
}
