package ports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hvidsten/skylight/internal/app"
)

func MakeGetNoticesHandler(
	getNotices app.GetNotices,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("notices", rootLogger, sentryMiddleware, allowedOrigins)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		forceRefresh, ok := parseForceRefresh(r)
		if !ok {
			writeBadRequest(ctx, w, "invalid refresh parameter")
			return
		}

		query := app.NoticesQuery{ForceRefresh: forceRefresh}

		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 1 || limit > 100 {
				writeBadRequest(ctx, w, "invalid limit parameter")
				return
			}
			query.Limit = limit
		}

		if raw := r.URL.Query().Get("days"); raw != "" {
			days, err := strconv.Atoi(raw)
			if err != nil || days < 1 || days > 365 {
				writeBadRequest(ctx, w, "invalid days parameter")
				return
			}
			query.Days = days
		}

		result, err := getNotices(ctx, query)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeData(ctx, w, result.Origin, result.Record.RetrievedAt, noticesToResponse(result.Record.Notices))
	}

	return middleware(handler)
}
