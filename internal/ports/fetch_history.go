package ports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hvidsten/skylight/internal/app"
	"github.com/hvidsten/skylight/internal/domain"
)

type fetchEventResponse struct {
	Kind       string    `json:"kind"`
	CacheKey   string    `json:"cacheKey"`
	Source     string    `json:"source"`
	Origin     string    `json:"origin,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"durationMs"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

func MakeFetchHistoryHandler(
	getFetchHistory app.GetFetchHistory,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("fetchhistory", rootLogger, sentryMiddleware, allowedOrigins)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		kind := domain.Kind(r.PathValue("kind"))
		if !kind.Valid() {
			writeBadRequest(ctx, w, "unknown data kind")
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 500 {
				writeBadRequest(ctx, w, "invalid limit parameter")
				return
			}
			limit = parsed
		}

		events, err := getFetchHistory(ctx, kind, limit)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		response := make([]fetchEventResponse, 0, len(events))
		for _, event := range events {
			response = append(response, fetchEventResponse{
				Kind:       string(event.Kind),
				CacheKey:   event.CacheKey,
				Source:     event.Source,
				Origin:     event.Origin,
				Success:    event.Success,
				Error:      event.Error,
				DurationMS: event.Duration.Milliseconds(),
				FetchedAt:  event.FetchedAt,
			})
		}

		writeJSON(ctx, w, http.StatusOK, envelope{Success: true, Data: response})
	}

	return middleware(handler)
}
