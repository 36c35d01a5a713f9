package tiers

import (
	"context"

	"github.com/jellydator/ttlcache/v3"
)

type memoryTier struct {
	cache *ttlcache.Cache[string, Entry]
}

// NewMemoryTier returns the in-process tier. Eviction runs at the
// retention horizon, not the logical TTL.
func NewMemoryTier() Tier {
	cache := ttlcache.New[string, Entry](
		ttlcache.WithDisableTouchOnHit[string, Entry](),
	)
	go cache.Start()
	return &memoryTier{cache: cache}
}

func (t *memoryTier) Name() string {
	return "memory"
}

func (t *memoryTier) Get(ctx context.Context, key string) (Entry, error) {
	item := t.cache.Get(key)
	if item == nil {
		return Entry{}, ErrEntryNotFound
	}
	return item.Value(), nil
}

func (t *memoryTier) Set(ctx context.Context, key string, entry Entry) error {
	t.cache.Set(key, entry, entry.Retention())
	return nil
}

func (t *memoryTier) Delete(ctx context.Context, key string) error {
	t.cache.Delete(key)
	return nil
}

func (t *memoryTier) Clear(ctx context.Context) error {
	t.cache.DeleteAll()
	return nil
}

func (t *memoryTier) Len(ctx context.Context) (int, error) {
	return t.cache.Len(), nil
}
