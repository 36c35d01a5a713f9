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

// IncomeLimitsQuery narrows the income limits table. Zero values mean no
// filtering on that dimension.
type IncomeLimitsQuery struct {
	Year         int
	FamilySize   int
	ForceRefresh bool
}

type GetIncomeLimits func(ctx context.Context, query IncomeLimitsQuery) (RecordResult, error)

func BuildGetIncomeLimits(
	service Acquirer,
	fetchArchive archive.FetchArchive,
	nowFunc func() time.Time,
) GetIncomeLimits {
	return func(ctx context.Context, query IncomeLimitsQuery) (RecordResult, error) {
		if query.FamilySize != 0 && (query.FamilySize < 1 || query.FamilySize > 8) {
			return RecordResult{}, fmt.Errorf("%w: family size must be between 1 and 8, got %d", e.ErrAcquisition, query.FamilySize)
		}

		params := map[string]string{}
		if query.Year != 0 {
			params["year"] = strconv.Itoa(query.Year)
		}
		if query.FamilySize != 0 {
			params["family_size"] = strconv.Itoa(query.FamilySize)
		}

		spec := sources.FetchSpec{
			Source: sources.SourceForKind(domain.KindIncomeLimits),
			Kind:   domain.KindIncomeLimits,
			Params: params,
		}

		result, err := acquireAndArchive(ctx, service, fetchArchive, nowFunc, spec, acquire.Options{
			ForceRefresh: query.ForceRefresh,
		})
		if err != nil {
			return RecordResult{}, err
		}
		return RecordResult{Record: result.Record, Origin: result.Origin}, nil
	}
}
