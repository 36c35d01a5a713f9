package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/domain"
	e "github.com/hvidsten/skylight/internal/errors"
	"github.com/hvidsten/skylight/internal/logging"
)

var searchDataTypes = map[string]bool{
	"all":        true,
	"statistics": true,
	"notices":    true,
	"programs":   true,
}

type SearchHousingDataQuery struct {
	Query string
	// DataType narrows the search to one data kind. Empty means "all".
	DataType string
	// Limit caps the number of hits across all kinds. Zero means 10.
	Limit        int
	ForceRefresh bool
}

// SearchHit is one match from one data kind. Exactly one of the payload
// fields is set, matching Type.
type SearchHit struct {
	Type      string
	Relevance string

	Notice     *domain.PublicNotice
	Statistics *domain.HousingStatistics
	Program    *domain.HousingProgram
}

type SearchHousingData func(ctx context.Context, query SearchHousingDataQuery) ([]SearchHit, error)

// BuildSearchHousingData searches across notices, statistics and programs.
// Each kind is acquired independently; one kind failing does not empty the
// whole search, but if every kind fails the last error is returned.
func BuildSearchHousingData(
	service Acquirer,
	fetchArchive archive.FetchArchive,
	nowFunc func() time.Time,
) SearchHousingData {
	return func(ctx context.Context, query SearchHousingDataQuery) ([]SearchHit, error) {
		needle := strings.TrimSpace(query.Query)
		if needle == "" {
			return nil, fmt.Errorf("%w: search query must not be empty", e.ErrAcquisition)
		}
		dataType := query.DataType
		if dataType == "" {
			dataType = "all"
		}
		if !searchDataTypes[dataType] {
			return nil, fmt.Errorf("%w: unknown data type %q", e.ErrAcquisition, query.DataType)
		}
		if query.Limit < 0 {
			return nil, fmt.Errorf("%w: limit must not be negative, got %d", e.ErrAcquisition, query.Limit)
		}
		limit := query.Limit
		if limit == 0 {
			limit = defaultSearchLimit
		}

		logger := logging.FromContext(ctx)
		opts := acquire.Options{ForceRefresh: query.ForceRefresh}

		var hits []SearchHit
		var lastErr error
		attempted := 0

		fetch := func(kind domain.Kind) (*domain.Record, bool) {
			attempted++
			spec := sources.FetchSpec{
				Source: sources.SourceForKind(kind),
				Kind:   kind,
			}
			result, err := acquireAndArchive(ctx, service, fetchArchive, nowFunc, spec, opts)
			if err != nil {
				logger.Warn("Skipping data kind in search", "kind", string(kind), "error", err.Error())
				lastErr = err
				return nil, false
			}
			return result.Record, true
		}

		if dataType == "all" || dataType == "notices" {
			if record, ok := fetch(domain.KindNotices); ok {
				for _, notice := range rankNotices(record.Notices, needle) {
					hits = append(hits, SearchHit{Type: "notice", Relevance: "high", Notice: &notice})
				}
			}
		}

		if (dataType == "all" || dataType == "statistics") && len(hits) < limit {
			if record, ok := fetch(domain.KindStatistics); ok {
				if statisticsMatch(record.Statistics, needle) {
					hits = append(hits, SearchHit{Type: "statistics", Relevance: "medium", Statistics: record.Statistics})
				}
			}
		}

		if (dataType == "all" || dataType == "programs") && len(hits) < limit {
			if record, ok := fetch(domain.KindPrograms); ok {
				for i := range record.Programs {
					if programMatches(&record.Programs[i], needle) {
						hits = append(hits, SearchHit{Type: "program", Relevance: "medium", Program: &record.Programs[i]})
					}
				}
			}
		}

		if len(hits) == 0 && attempted > 0 && lastErr != nil {
			return nil, lastErr
		}
		if len(hits) > limit {
			hits = hits[:limit]
		}
		return hits, nil
	}
}

// statisticsMatch looks for the query anywhere in the snapshot, including
// the city and status breakdown keys.
func statisticsMatch(statistics *domain.HousingStatistics, needle string) bool {
	if statistics == nil {
		return false
	}
	marshalled, err := json.Marshal(statistics)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(marshalled)), strings.ToLower(needle))
}

func programMatches(program *domain.HousingProgram, needle string) bool {
	needle = strings.ToLower(needle)
	if strings.Contains(strings.ToLower(program.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(program.Description), needle) {
		return true
	}
	for _, requirement := range program.EligibilityRequirements {
		if strings.Contains(strings.ToLower(requirement), needle) {
			return true
		}
	}
	return false
}
