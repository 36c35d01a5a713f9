package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/domain"
	e "github.com/hvidsten/skylight/internal/errors"
)

type NoticesQuery struct {
	// Limit caps the number of notices returned. Zero means no cap.
	Limit int
	// Days keeps only notices published within the last N days. Notices
	// without a publication date always pass the filter.
	Days         int
	ForceRefresh bool
}

type GetNotices func(ctx context.Context, query NoticesQuery) (RecordResult, error)

func BuildGetNotices(
	service Acquirer,
	fetchArchive archive.FetchArchive,
	nowFunc func() time.Time,
) GetNotices {
	return func(ctx context.Context, query NoticesQuery) (RecordResult, error) {
		if query.Limit < 0 {
			return RecordResult{}, fmt.Errorf("%w: limit must not be negative, got %d", e.ErrAcquisition, query.Limit)
		}
		if query.Days < 0 {
			return RecordResult{}, fmt.Errorf("%w: days must not be negative, got %d", e.ErrAcquisition, query.Days)
		}

		// The date filter depends on the current time, so it is applied
		// here rather than baked into the cache key.
		params := map[string]string{}
		if query.Limit != 0 {
			params["limit"] = strconv.Itoa(query.Limit)
		}

		spec := sources.FetchSpec{
			Source: sources.SourceForKind(domain.KindNotices),
			Kind:   domain.KindNotices,
			Params: params,
		}

		result, err := acquireAndArchive(ctx, service, fetchArchive, nowFunc, spec, acquire.Options{
			ForceRefresh: query.ForceRefresh,
		})
		if err != nil {
			return RecordResult{}, err
		}

		if query.Days != 0 {
			cutoff := nowFunc().AddDate(0, 0, -query.Days)
			filtered := make([]domain.PublicNotice, 0, len(result.Record.Notices))
			for _, notice := range result.Record.Notices {
				if notice.DatePublished != nil && notice.DatePublished.Before(cutoff) {
					continue
				}
				filtered = append(filtered, notice)
			}
			record := *result.Record
			record.Notices = filtered
			result.Record = &record
		}

		return RecordResult{Record: result.Record, Origin: result.Origin}, nil
	}
}
