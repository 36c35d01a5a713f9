package tiers_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvidsten/skylight/internal/adapters/tiers"
	e "github.com/hvidsten/skylight/internal/errors"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func freshEntry(fetchedAt time.Time) tiers.Entry {
	return tiers.Entry{
		Value:     []byte(`{"kind":"housing_statistics"}`),
		FetchedAt: fetchedAt,
		TTL:       time.Hour,
	}
}

func newManager(t *testing.T, tierList ...tiers.Tier) *tiers.Manager {
	t.Helper()
	manager, err := tiers.NewManager(tierList, func() time.Time { return testTime })
	require.NoError(t, err)
	return manager
}

func TestManagerRequiresTiers(t *testing.T) {
	_, err := tiers.NewManager(nil, nil)
	assert.Error(t, err)
}

func TestManagerGetFirstTierHit(t *testing.T) {
	ctx := context.Background()
	memory := tiers.NewMockTier("memory")
	file := tiers.NewMockTier("file")
	manager := newManager(t, memory, file)

	entry := freshEntry(testTime.Add(-time.Minute))
	require.NoError(t, memory.Set(ctx, "key", entry))

	got, tierName, err := manager.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, entry.Value, got.Value)
	assert.Equal(t, "memory", tierName)
	// No promotion writes when the fastest tier already had it
	assert.Equal(t, 0, file.Sets())
}

func TestManagerGetPromotesFromSlowerTier(t *testing.T) {
	ctx := context.Background()
	memory := tiers.NewMockTier("memory")
	file := tiers.NewMockTier("file")
	manager := newManager(t, memory, file)

	entry := freshEntry(testTime.Add(-time.Minute))
	require.NoError(t, file.Set(ctx, "key", entry))

	got, tierName, err := manager.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, entry.Value, got.Value)
	assert.Equal(t, "file", tierName)

	// The hit was promoted, so the next lookup stays in memory
	assert.Equal(t, 1, memory.Sets())
	_, tierName, err = manager.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "memory", tierName)
}

func TestManagerGetSkipsStaleEntries(t *testing.T) {
	ctx := context.Background()
	memory := tiers.NewMockTier("memory")
	manager := newManager(t, memory)

	stale := freshEntry(testTime.Add(-2 * time.Hour))
	require.NoError(t, memory.Set(ctx, "key", stale))

	_, _, err := manager.Get(ctx, "key")
	require.ErrorIs(t, err, tiers.ErrEntryNotFound)

	got, tierName, err := manager.GetStale(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, stale.Value, got.Value)
	assert.Equal(t, "memory", tierName)
}

func TestManagerGetStaleReturnsFreshestCandidate(t *testing.T) {
	ctx := context.Background()
	memory := tiers.NewMockTier("memory")
	file := tiers.NewMockTier("file")
	manager := newManager(t, memory, file)

	older := freshEntry(testTime.Add(-48 * time.Hour))
	newer := freshEntry(testTime.Add(-24 * time.Hour))
	newer.Value = []byte(`{"newer":true}`)
	require.NoError(t, memory.Set(ctx, "key", older))
	require.NoError(t, file.Set(ctx, "key", newer))

	got, tierName, err := manager.GetStale(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, newer.Value, got.Value)
	assert.Equal(t, "file", tierName)
}

func TestManagerAbsorbsUnavailableTier(t *testing.T) {
	ctx := context.Background()
	memory := tiers.NewMockTier("memory")
	file := tiers.NewMockTier("file")
	manager := newManager(t, memory, file)

	entry := freshEntry(testTime.Add(-time.Minute))
	require.NoError(t, file.Set(ctx, "key", entry))
	memory.SetDown(true)

	got, tierName, err := manager.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, entry.Value, got.Value)
	assert.Equal(t, "file", tierName)
}

func TestManagerGetAllTiersDown(t *testing.T) {
	ctx := context.Background()
	memory := tiers.NewMockTier("memory")
	file := tiers.NewMockTier("file")
	manager := newManager(t, memory, file)

	memory.SetDown(true)
	file.SetDown(true)

	_, _, err := manager.Get(ctx, "key")
	require.ErrorIs(t, err, e.ErrTierUnavailable)
}

func TestManagerGetMiss(t *testing.T) {
	ctx := context.Background()
	manager := newManager(t, tiers.NewMockTier("memory"))

	_, _, err := manager.Get(ctx, "nope")
	require.ErrorIs(t, err, tiers.ErrEntryNotFound)

	_, _, err = manager.GetStale(ctx, "nope")
	require.ErrorIs(t, err, tiers.ErrEntryNotFound)
}

func TestManagerSetWritesThroughAllTiers(t *testing.T) {
	ctx := context.Background()
	memory := tiers.NewMockTier("memory")
	file := tiers.NewMockTier("file")
	manager := newManager(t, memory, file)

	entry := freshEntry(testTime)
	require.NoError(t, manager.Set(ctx, "key", entry))
	assert.Equal(t, 1, memory.Sets())
	assert.Equal(t, 1, file.Sets())
}

func TestManagerSetToleratesPartialFailure(t *testing.T) {
	ctx := context.Background()
	memory := tiers.NewMockTier("memory")
	file := tiers.NewMockTier("file")
	manager := newManager(t, memory, file)

	file.SetDown(true)
	require.NoError(t, manager.Set(ctx, "key", freshEntry(testTime)))

	memory.SetDown(true)
	assert.Error(t, manager.Set(ctx, "other", freshEntry(testTime)))
}

func TestManagerClearAndStats(t *testing.T) {
	ctx := context.Background()
	memory := tiers.NewMockTier("memory")
	file := tiers.NewMockTier("file")
	manager := newManager(t, memory, file)

	require.NoError(t, manager.Set(ctx, "key", freshEntry(testTime)))

	stats := manager.Stats(ctx)
	require.Len(t, stats, 2)
	assert.Equal(t, tiers.TierStats{Name: "memory", Entries: 1, Available: true}, stats[0])
	assert.Equal(t, tiers.TierStats{Name: "file", Entries: 1, Available: true}, stats[1])

	require.NoError(t, manager.Clear(ctx))
	stats = manager.Stats(ctx)
	assert.Equal(t, 0, stats[0].Entries)
	assert.Equal(t, 0, stats[1].Entries)

	file.SetDown(true)
	stats = manager.Stats(ctx)
	assert.False(t, stats[1].Available)
}
