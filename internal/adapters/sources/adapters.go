package sources

import (
	"fmt"
	"regexp"
	"time"

	"golang.org/x/time/rate"

	"github.com/hvidsten/skylight/internal/domain"
)

var yearRx = regexp.MustCompile(`^20\d{2}$`)

// NewDashboardSource serves the rendered statistics dashboard and the
// project/program pages that hang off it.
func NewDashboardSource(httpClient HttpClient, limiter *rate.Limiter, nowFunc func() time.Time) Source {
	return &httpSource{
		id:         SourceDashboard,
		httpClient: httpClient,
		limiter:    limiter,
		nowFunc:    nowFunc,
		urlFor: func(spec FetchSpec) (string, error) {
			switch spec.Kind {
			case domain.KindStatistics:
				return dashboardsURL, nil
			case domain.KindPrograms:
				return applyProgramsURL, nil
			case domain.KindProjects:
				return projectsURL, nil
			default:
				return "", fmt.Errorf("dashboard source does not serve kind %q", spec.Kind)
			}
		},
	}
}

// NewDocumentSource serves the published income and rent limit tables.
// The year parameter selects which table callers are after; the whole page
// is fetched and filtering happens during normalization.
func NewDocumentSource(httpClient HttpClient, limiter *rate.Limiter, nowFunc func() time.Time) Source {
	return &httpSource{
		id:         SourceDocuments,
		httpClient: httpClient,
		limiter:    limiter,
		nowFunc:    nowFunc,
		urlFor: func(spec FetchSpec) (string, error) {
			if spec.Kind != domain.KindIncomeLimits {
				return "", fmt.Errorf("document source does not serve kind %q", spec.Kind)
			}
			if year, ok := spec.Params["year"]; ok && !yearRx.MatchString(year) {
				return "", fmt.Errorf("invalid year %q", year)
			}
			return incomeLimitsURL, nil
		},
	}
}

// NewListingSource serves scraped listing pages (public notices).
func NewListingSource(httpClient HttpClient, limiter *rate.Limiter, nowFunc func() time.Time) Source {
	return &httpSource{
		id:         SourceListings,
		httpClient: httpClient,
		limiter:    limiter,
		nowFunc:    nowFunc,
		urlFor: func(spec FetchSpec) (string, error) {
			if spec.Kind != domain.KindNotices {
				return "", fmt.Errorf("listing source does not serve kind %q", spec.Kind)
			}
			return publicNoticesURL, nil
		},
	}
}

// NewPolitenessLimiter returns the shared limiter that spaces out requests
// against the county site. One request per delay, no bursting.
func NewPolitenessLimiter(delay time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(delay), 1)
}
