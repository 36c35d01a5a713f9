package tiers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	e "github.com/hvidsten/skylight/internal/errors"
	"github.com/hvidsten/skylight/internal/logging"
)

// Manager coordinates the configured tiers: ordered lookup with
// promotion, write-through on store, and stale retrieval for fallbacks.
// A single unreachable tier never fails an operation as long as another
// tier can serve it.
type Manager struct {
	tiers   []Tier
	nowFunc func() time.Time
	metrics managerMetricsCollection
}

// TierStats describes one tier for the diagnostics surface.
type TierStats struct {
	Name      string `json:"name"`
	Entries   int    `json:"entries"`
	Available bool   `json:"available"`
}

func NewManager(tierList []Tier, nowFunc func() time.Time) (*Manager, error) {
	if len(tierList) == 0 {
		return nil, errors.New("tiers: at least one tier is required")
	}
	if nowFunc == nil {
		nowFunc = time.Now
	}

	meter := otel.Meter("tiers")
	metrics, err := setupManagerMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &Manager{tiers: tierList, nowFunc: nowFunc, metrics: metrics}, nil
}

// Get returns the first fresh entry found in tier order, promoting it to
// every faster tier it missed in. Stale entries are skipped here; use
// GetStale when expired data is acceptable.
func (m *Manager) Get(ctx context.Context, key string) (Entry, string, error) {
	logger := logging.FromContext(ctx)
	now := m.nowFunc()

	unavailable := 0
	for i, tier := range m.tiers {
		entry, err := tier.Get(ctx, key)
		if errors.Is(err, e.ErrTierUnavailable) {
			logger.Warn("Cache tier unavailable", "tier", tier.Name(), "error", err.Error())
			unavailable++
			continue
		}
		if err != nil {
			m.metrics.lookupCount.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tier", tier.Name()),
				attribute.String("result", "miss"),
			))
			continue
		}
		if !entry.Fresh(now) {
			m.metrics.lookupCount.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tier", tier.Name()),
				attribute.String("result", "stale"),
			))
			continue
		}

		m.metrics.lookupCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tier", tier.Name()),
			attribute.String("result", "hit"),
		))
		m.promote(ctx, key, entry, i)
		return entry, tier.Name(), nil
	}

	if unavailable == len(m.tiers) {
		return Entry{}, "", fmt.Errorf("%w: no cache tier reachable", e.ErrTierUnavailable)
	}
	return Entry{}, "", ErrEntryNotFound
}

// GetStale scans every tier and returns the most recently fetched entry
// regardless of its TTL. Used as a last resort when the source is down.
func (m *Manager) GetStale(ctx context.Context, key string) (Entry, string, error) {
	logger := logging.FromContext(ctx)

	var best Entry
	bestTier := ""
	found := false

	for _, tier := range m.tiers {
		entry, err := tier.Get(ctx, key)
		if errors.Is(err, e.ErrTierUnavailable) {
			logger.Warn("Cache tier unavailable", "tier", tier.Name(), "error", err.Error())
			continue
		}
		if err != nil {
			continue
		}
		if !found || entry.FetchedAt.After(best.FetchedAt) {
			best = entry
			bestTier = tier.Name()
			found = true
		}
	}

	if !found {
		return Entry{}, "", ErrEntryNotFound
	}
	return best, bestTier, nil
}

// Set writes the entry through to every tier. It succeeds as long as at
// least one tier accepted the write.
func (m *Manager) Set(ctx context.Context, key string, entry Entry) error {
	logger := logging.FromContext(ctx)

	stored := 0
	var lastErr error
	for _, tier := range m.tiers {
		if err := tier.Set(ctx, key, entry); err != nil {
			logger.Warn("Failed to write cache tier", "tier", tier.Name(), "error", err.Error())
			lastErr = err
			continue
		}
		stored++
	}

	if stored == 0 {
		return fmt.Errorf("all cache tiers rejected the write: %w", lastErr)
	}
	return nil
}

// Delete removes the key from every tier.
func (m *Manager) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, tier := range m.tiers {
		if err := tier.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear empties every tier.
func (m *Manager) Clear(ctx context.Context) error {
	var errs []error
	for _, tier := range m.tiers {
		if err := tier.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats reports entry counts and availability per tier.
func (m *Manager) Stats(ctx context.Context) []TierStats {
	stats := make([]TierStats, 0, len(m.tiers))
	for _, tier := range m.tiers {
		count, err := tier.Len(ctx)
		stats = append(stats, TierStats{
			Name:      tier.Name(),
			Entries:   count,
			Available: err == nil,
		})
	}
	return stats
}

func (m *Manager) promote(ctx context.Context, key string, entry Entry, hitIndex int) {
	logger := logging.FromContext(ctx)
	for _, tier := range m.tiers[:hitIndex] {
		if err := tier.Set(ctx, key, entry); err != nil {
			logger.Warn("Failed to promote cache entry", "tier", tier.Name(), "error", err.Error())
		}
	}
}

type managerMetricsCollection struct {
	lookupCount metric.Int64Counter
}

func setupManagerMetrics(meter metric.Meter) (managerMetricsCollection, error) {
	lookupCount, err := meter.Int64Counter("tiers/lookups")
	if err != nil {
		return managerMetricsCollection{}, fmt.Errorf("failed to create metric: %w", err)
	}
	return managerMetricsCollection{lookupCount: lookupCount}, nil
}
