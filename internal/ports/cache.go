package ports

import (
	"log/slog"
	"net/http"

	"github.com/hvidsten/skylight/internal/app"
)

func MakeCacheStatsHandler(
	getCacheStats app.GetCacheStats,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("cachestats", rootLogger, sentryMiddleware, allowedOrigins)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		writeJSON(ctx, w, http.StatusOK, envelope{
			Success: true,
			Data:    getCacheStats(ctx),
		})
	}

	return middleware(handler)
}

func MakeClearCacheHandler(
	clearCache app.ClearCache,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("clearcache", rootLogger, sentryMiddleware, allowedOrigins)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := clearCache(ctx); err != nil {
			writeJSON(ctx, w, http.StatusInternalServerError, envelope{
				Success: false,
				Cause:   "failed to clear cache",
			})
			return
		}

		writeJSON(ctx, w, http.StatusOK, envelope{Success: true})
	}

	return middleware(handler)
}
