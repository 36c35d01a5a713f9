package tiers_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvidsten/skylight/internal/adapters/tiers"
)

func newBoltTier(t *testing.T, now *time.Time) tiers.Tier {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	tier, err := tiers.NewBoltTier(path, func() time.Time { return *now })
	require.NoError(t, err)
	return tier
}

func TestBoltTierRoundtrip(t *testing.T) {
	ctx := context.Background()
	now := testTime
	tier := newBoltTier(t, &now)

	entry := freshEntry(now)
	require.NoError(t, tier.Set(ctx, "key", entry))

	got, err := tier.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, entry.Value, got.Value)
	assert.True(t, entry.FetchedAt.Equal(got.FetchedAt))
	assert.Equal(t, entry.TTL, got.TTL)

	_, err = tier.Get(ctx, "missing")
	assert.ErrorIs(t, err, tiers.ErrEntryNotFound)
}

func TestBoltTierRetainsStaleEntries(t *testing.T) {
	ctx := context.Background()
	now := testTime
	tier := newBoltTier(t, &now)

	require.NoError(t, tier.Set(ctx, "key", freshEntry(now)))

	// Well past the TTL but within retention, the entry must survive
	now = now.Add(48 * time.Hour)
	_, err := tier.Get(ctx, "key")
	require.NoError(t, err)

	// Past the retention horizon it is purged
	now = now.Add(14 * time.Hour * 24)
	_, err = tier.Get(ctx, "key")
	assert.ErrorIs(t, err, tiers.ErrEntryNotFound)
}

func TestBoltTierClearAndLen(t *testing.T) {
	ctx := context.Background()
	now := testTime
	tier := newBoltTier(t, &now)

	require.NoError(t, tier.Set(ctx, "a", freshEntry(now)))
	require.NoError(t, tier.Set(ctx, "b", freshEntry(now)))

	count, err := tier.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, tier.Clear(ctx))
	count, err = tier.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
