package ports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hvidsten/skylight/internal/app"
	"github.com/hvidsten/skylight/internal/domain"
)

type searchHitResponse struct {
	Type      string `json:"type"`
	Relevance string `json:"relevance"`

	Notice     *noticeResponse     `json:"notice,omitempty"`
	Statistics *statisticsResponse `json:"statistics,omitempty"`
	Program    *programResponse    `json:"program,omitempty"`
}

func searchHitsToResponse(hits []app.SearchHit) []searchHitResponse {
	response := make([]searchHitResponse, 0, len(hits))
	for _, hit := range hits {
		converted := searchHitResponse{Type: hit.Type, Relevance: hit.Relevance}
		if hit.Notice != nil {
			notice := noticesToResponse([]domain.PublicNotice{*hit.Notice})[0]
			converted.Notice = &notice
		}
		if hit.Statistics != nil {
			statistics := statisticsToResponse(hit.Statistics)
			converted.Statistics = &statistics
		}
		if hit.Program != nil {
			program := programsToResponse([]domain.HousingProgram{*hit.Program})[0]
			converted.Program = &program
		}
		response = append(response, converted)
	}
	return response
}

// searchParams pulls the shared q/limit parameters. A missing or blank q
// is rejected before the app layer sees it.
func searchParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	ctx := r.Context()

	query := r.URL.Query().Get("q")
	if query == "" {
		writeBadRequest(ctx, w, "missing q parameter")
		return "", 0, false
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			writeBadRequest(ctx, w, "invalid limit parameter")
			return "", 0, false
		}
		limit = parsed
	}

	return query, limit, true
}

func MakeSearchNoticesHandler(
	searchNotices app.SearchNotices,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("searchnotices", rootLogger, sentryMiddleware, allowedOrigins)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		query, limit, ok := searchParams(w, r)
		if !ok {
			return
		}

		forceRefresh, ok := parseForceRefresh(r)
		if !ok {
			writeBadRequest(ctx, w, "invalid refresh parameter")
			return
		}

		result, err := searchNotices(ctx, app.SearchNoticesQuery{
			Query:        query,
			Limit:        limit,
			ForceRefresh: forceRefresh,
		})
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, envelope{
			Success:     true,
			Origin:      string(result.Origin),
			RetrievedAt: &result.RetrievedAt,
			Data:        noticesToResponse(result.Notices),
		})
	}

	return middleware(handler)
}

func MakeSearchHousingDataHandler(
	searchHousingData app.SearchHousingData,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("search", rootLogger, sentryMiddleware, allowedOrigins)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		query, limit, ok := searchParams(w, r)
		if !ok {
			return
		}

		forceRefresh, ok := parseForceRefresh(r)
		if !ok {
			writeBadRequest(ctx, w, "invalid refresh parameter")
			return
		}

		hits, err := searchHousingData(ctx, app.SearchHousingDataQuery{
			Query:        query,
			DataType:     r.URL.Query().Get("type"),
			Limit:        limit,
			ForceRefresh: forceRefresh,
		})
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, envelope{
			Success: true,
			Data:    searchHitsToResponse(hits),
		})
	}

	return middleware(handler)
}
