package app

import (
	"context"
	"fmt"

	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/domain"
	e "github.com/hvidsten/skylight/internal/errors"
)

type GetFetchHistory func(ctx context.Context, kind domain.Kind, limit int) ([]archive.FetchEvent, error)

func BuildGetFetchHistory(fetchArchive archive.FetchArchive) GetFetchHistory {
	return func(ctx context.Context, kind domain.Kind, limit int) ([]archive.FetchEvent, error) {
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: unknown data kind %q", e.ErrAcquisition, kind)
		}
		events, err := fetchArchive.RecentFetches(ctx, kind, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load fetch history: %w", err)
		}
		return events, nil
	}
}
