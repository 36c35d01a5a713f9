package ports

import (
	"log/slog"
	"net/http"

	"github.com/hvidsten/skylight/internal/app"
)

func MakeGetProgramsHandler(
	getPrograms app.GetPrograms,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("programs", rootLogger, sentryMiddleware, allowedOrigins)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		forceRefresh, ok := parseForceRefresh(r)
		if !ok {
			writeBadRequest(ctx, w, "invalid refresh parameter")
			return
		}

		result, err := getPrograms(ctx, forceRefresh)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeData(ctx, w, result.Origin, result.Record.RetrievedAt, programsToResponse(result.Record.Programs))
	}

	return middleware(handler)
}
