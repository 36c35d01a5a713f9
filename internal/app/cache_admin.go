package app

import (
	"context"
	"fmt"

	"github.com/hvidsten/skylight/internal/adapters/tiers"
	"github.com/hvidsten/skylight/internal/logging"
)

type cacheAdmin interface {
	Stats(ctx context.Context) []tiers.TierStats
	Clear(ctx context.Context) error
}

type GetCacheStats func(ctx context.Context) []tiers.TierStats

type ClearCache func(ctx context.Context) error

func BuildGetCacheStats(manager cacheAdmin) GetCacheStats {
	return func(ctx context.Context) []tiers.TierStats {
		return manager.Stats(ctx)
	}
}

func BuildClearCache(manager cacheAdmin) ClearCache {
	return func(ctx context.Context) error {
		logging.FromContext(ctx).Info("Clearing all cache tiers")
		if err := manager.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		return nil
	}
}
