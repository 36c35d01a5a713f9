package ports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hvidsten/skylight/internal/app"
)

func MakeGetIncomeLimitsHandler(
	getIncomeLimits app.GetIncomeLimits,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("incomelimits", rootLogger, sentryMiddleware, allowedOrigins)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		forceRefresh, ok := parseForceRefresh(r)
		if !ok {
			writeBadRequest(ctx, w, "invalid refresh parameter")
			return
		}

		query := app.IncomeLimitsQuery{ForceRefresh: forceRefresh}

		if raw := r.URL.Query().Get("year"); raw != "" {
			year, err := strconv.Atoi(raw)
			if err != nil || year < 2000 || year > 2099 {
				writeBadRequest(ctx, w, "invalid year parameter")
				return
			}
			query.Year = year
		}

		if raw := r.URL.Query().Get("family_size"); raw != "" {
			familySize, err := strconv.Atoi(raw)
			if err != nil || familySize < 1 || familySize > 8 {
				writeBadRequest(ctx, w, "invalid family_size parameter")
				return
			}
			query.FamilySize = familySize
		}

		result, err := getIncomeLimits(ctx, query)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeData(ctx, w, result.Origin, result.Record.RetrievedAt, incomeLimitsToResponse(result.Record.IncomeLimits))
	}

	return middleware(handler)
}
