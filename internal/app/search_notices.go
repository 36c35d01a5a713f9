package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/domain"
	e "github.com/hvidsten/skylight/internal/errors"
)

const defaultSearchLimit = 10

type SearchNoticesQuery struct {
	Query string
	// Limit caps the number of matches. Zero means 10.
	Limit        int
	ForceRefresh bool
}

type NoticesSearchResult struct {
	Notices     []domain.PublicNotice
	Origin      acquire.Origin
	RetrievedAt time.Time
}

type SearchNotices func(ctx context.Context, query SearchNoticesQuery) (NoticesSearchResult, error)

func BuildSearchNotices(
	service Acquirer,
	fetchArchive archive.FetchArchive,
	nowFunc func() time.Time,
) SearchNotices {
	return func(ctx context.Context, query SearchNoticesQuery) (NoticesSearchResult, error) {
		needle := strings.TrimSpace(query.Query)
		if needle == "" {
			return NoticesSearchResult{}, fmt.Errorf("%w: search query must not be empty", e.ErrAcquisition)
		}
		if query.Limit < 0 {
			return NoticesSearchResult{}, fmt.Errorf("%w: limit must not be negative, got %d", e.ErrAcquisition, query.Limit)
		}
		limit := query.Limit
		if limit == 0 {
			limit = defaultSearchLimit
		}

		spec := sources.FetchSpec{
			Source: sources.SourceForKind(domain.KindNotices),
			Kind:   domain.KindNotices,
		}

		result, err := acquireAndArchive(ctx, service, fetchArchive, nowFunc, spec, acquire.Options{
			ForceRefresh: query.ForceRefresh,
		})
		if err != nil {
			return NoticesSearchResult{}, err
		}

		matches := rankNotices(result.Record.Notices, needle)
		if len(matches) > limit {
			matches = matches[:limit]
		}

		return NoticesSearchResult{
			Notices:     matches,
			Origin:      result.Origin,
			RetrievedAt: result.Record.RetrievedAt,
		}, nil
	}
}

// rankNotices scores each notice by where the query appears: a title hit
// outweighs a summary hit, which outweighs a notice type hit. Non-matches
// are dropped; ties keep publication order.
func rankNotices(notices []domain.PublicNotice, needle string) []domain.PublicNotice {
	needle = strings.ToLower(needle)

	type scored struct {
		notice domain.PublicNotice
		score  int
	}

	matches := make([]scored, 0, len(notices))
	for _, notice := range notices {
		score := 0
		if strings.Contains(strings.ToLower(notice.Title), needle) {
			score += 10
		}
		if strings.Contains(strings.ToLower(notice.Summary), needle) {
			score += 5
		}
		if strings.Contains(strings.ToLower(notice.NoticeType), needle) {
			score += 3
		}
		if score > 0 {
			matches = append(matches, scored{notice: notice, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	ranked := make([]domain.PublicNotice, 0, len(matches))
	for _, match := range matches {
		ranked = append(ranked, match.notice)
	}
	return ranked
}
