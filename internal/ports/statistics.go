package ports

import (
	"log/slog"
	"net/http"

	"github.com/hvidsten/skylight/internal/app"
)

func MakeGetStatisticsHandler(
	getStatistics app.GetStatistics,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("statistics", rootLogger, sentryMiddleware, allowedOrigins)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		forceRefresh, ok := parseForceRefresh(r)
		if !ok {
			writeBadRequest(ctx, w, "invalid refresh parameter")
			return
		}

		result, err := getStatistics(ctx, forceRefresh)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeData(ctx, w, result.Origin, result.Record.RetrievedAt, statisticsToResponse(result.Record.Statistics))
	}

	return middleware(handler)
}

func parseForceRefresh(r *http.Request) (bool, bool) {
	raw := r.URL.Query().Get("refresh")
	switch raw {
	case "", "false", "0":
		return false, true
	case "true", "1":
		return true, true
	default:
		return false, false
	}
}
