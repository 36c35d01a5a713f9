package tiers

import (
	"context"
	"fmt"
	"sync"

	e "github.com/hvidsten/skylight/internal/errors"
)

// mockTier is an in-memory tier with a toggleable failure mode. Used by
// manager and orchestrator tests.
type mockTier struct {
	name string

	mu      sync.Mutex
	entries map[string]Entry
	down    bool

	gets int
	sets int
}

func NewMockTier(name string) *mockTier {
	return &mockTier{name: name, entries: make(map[string]Entry)}
}

// SetDown makes every operation fail with ErrTierUnavailable.
func (t *mockTier) SetDown(down bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.down = down
}

func (t *mockTier) Gets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gets
}

func (t *mockTier) Sets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sets
}

func (t *mockTier) Name() string {
	return t.name
}

func (t *mockTier) Get(ctx context.Context, key string) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gets++
	if t.down {
		return Entry{}, fmt.Errorf("%w: %s is down", e.ErrTierUnavailable, t.name)
	}
	entry, ok := t.entries[key]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (t *mockTier) Set(ctx context.Context, key string, entry Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sets++
	if t.down {
		return fmt.Errorf("%w: %s is down", e.ErrTierUnavailable, t.name)
	}
	t.entries[key] = entry
	return nil
}

func (t *mockTier) Delete(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.down {
		return fmt.Errorf("%w: %s is down", e.ErrTierUnavailable, t.name)
	}
	delete(t.entries, key)
	return nil
}

func (t *mockTier) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.down {
		return fmt.Errorf("%w: %s is down", e.ErrTierUnavailable, t.name)
	}
	t.entries = make(map[string]Entry)
	return nil
}

func (t *mockTier) Len(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.down {
		return 0, fmt.Errorf("%w: %s is down", e.ErrTierUnavailable, t.name)
	}
	return len(t.entries), nil
}
