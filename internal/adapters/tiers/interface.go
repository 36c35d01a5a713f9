// Package tiers implements the layered cache backends and the manager
// that coordinates lookups, promotion and write-through across them.
package tiers

import (
	"context"
	"errors"
	"time"
)

// ErrEntryNotFound is returned by a tier when the key is absent. It is a
// normal miss, not a tier failure.
var ErrEntryNotFound = errors.New("entry not found")

// retentionFactor stretches the physical lifetime of a stored entry past
// its logical TTL so that stale entries remain available as fallbacks.
const retentionFactor = 14

// Entry is the unit stored in every tier. Value holds the serialized
// record; freshness is judged from FetchedAt and TTL by the manager, not
// by the tier's own eviction.
type Entry struct {
	Value     []byte        `json:"value"`
	FetchedAt time.Time     `json:"fetchedAt"`
	TTL       time.Duration `json:"ttl"`
}

// Fresh reports whether the entry is within its logical TTL at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.Sub(e.FetchedAt) < e.TTL
}

// Retention is how long a tier should physically keep the entry.
func (e Entry) Retention() time.Duration {
	return e.TTL * retentionFactor
}

type Tier interface {
	Name() string
	// Get returns the stored entry, ErrEntryNotFound on a miss, or an
	// error wrapping ErrTierUnavailable when the backend is unreachable.
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}
