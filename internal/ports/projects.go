package ports

import (
	"log/slog"
	"net/http"

	"github.com/hvidsten/skylight/internal/app"
)

func MakeGetProjectsHandler(
	getProjects app.GetProjects,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("projects", rootLogger, sentryMiddleware, allowedOrigins)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		forceRefresh, ok := parseForceRefresh(r)
		if !ok {
			writeBadRequest(ctx, w, "invalid refresh parameter")
			return
		}

		query := app.ProjectsQuery{
			Status:       r.URL.Query().Get("status"),
			ForceRefresh: forceRefresh,
		}

		result, err := getProjects(ctx, query)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeData(ctx, w, result.Origin, result.Record.RetrievedAt, projectsToResponse(result.Record.Projects))
	}

	return middleware(handler)
}
