package tiers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	e "github.com/hvidsten/skylight/internal/errors"
)

const redisKeyPrefix = "skylight:cache:"

type redisTier struct {
	client redis.UniversalClient
}

// NewRedisTier returns the shared tier backed by the given client. All
// backend failures surface as ErrTierUnavailable so the manager can
// absorb them.
func NewRedisTier(client redis.UniversalClient) Tier {
	return &redisTier{client: client}
}

func (t *redisTier) Name() string {
	return "redis"
}

func (t *redisTier) Get(ctx context.Context, key string) (Entry, error) {
	data, err := t.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: redis get: %w", e.ErrTierUnavailable, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is as good as a miss
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (t *redisTier) Set(ctx context.Context, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := t.client.Set(ctx, redisKeyPrefix+key, data, entry.Retention()).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %w", e.ErrTierUnavailable, err)
	}
	return nil
}

func (t *redisTier) Delete(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %w", e.ErrTierUnavailable, err)
	}
	return nil
}

func (t *redisTier) Clear(ctx context.Context) error {
	iter := t.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := t.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("%w: redis del: %w", e.ErrTierUnavailable, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: redis scan: %w", e.ErrTierUnavailable, err)
	}
	return nil
}

func (t *redisTier) Len(ctx context.Context) (int, error) {
	count := 0
	iter := t.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("%w: redis scan: %w", e.ErrTierUnavailable, err)
	}
	return count, nil
}
