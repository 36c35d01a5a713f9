package app

import (
	"context"
	"time"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/domain"
)

type GetStatistics func(ctx context.Context, forceRefresh bool) (RecordResult, error)

func BuildGetStatistics(
	service Acquirer,
	fetchArchive archive.FetchArchive,
	nowFunc func() time.Time,
) GetStatistics {
	return func(ctx context.Context, forceRefresh bool) (RecordResult, error) {
		spec := sources.FetchSpec{
			Source: sources.SourceForKind(domain.KindStatistics),
			Kind:   domain.KindStatistics,
		}

		result, err := acquireAndArchive(ctx, service, fetchArchive, nowFunc, spec, acquire.Options{
			ForceRefresh: forceRefresh,
		})
		if err != nil {
			return RecordResult{}, err
		}
		return RecordResult{Record: result.Record, Origin: result.Origin}, nil
	}
}
