package app

import (
	"context"
	"time"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/domain"
)

type GetPrograms func(ctx context.Context, forceRefresh bool) (RecordResult, error)

func BuildGetPrograms(
	service Acquirer,
	fetchArchive archive.FetchArchive,
	nowFunc func() time.Time,
) GetPrograms {
	return func(ctx context.Context, forceRefresh bool) (RecordResult, error) {
		spec := sources.FetchSpec{
			Source: sources.SourceForKind(domain.KindPrograms),
			Kind:   domain.KindPrograms,
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
