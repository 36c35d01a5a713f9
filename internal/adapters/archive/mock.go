package archive

import (
	"context"
	"sync"

	"github.com/hvidsten/skylight/internal/domain"
)

// mockFetchArchive keeps events in memory. Used by tests and as the
// archive when no database is configured.
type mockFetchArchive struct {
	mu     sync.Mutex
	events []FetchEvent
}

func NewMockFetchArchive() *mockFetchArchive {
	return &mockFetchArchive{}
}

func (a *mockFetchArchive) RecordFetch(ctx context.Context, event FetchEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (a *mockFetchArchive) RecentFetches(ctx context.Context, kind domain.Kind, limit int) ([]FetchEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if limit < 1 {
		limit = 20
	}

	events := make([]FetchEvent, 0, limit)
	for i := len(a.events) - 1; i >= 0 && len(events) < limit; i-- {
		if a.events[i].Kind == kind {
			events = append(events, a.events[i])
		}
	}
	return events, nil
}

func (a *mockFetchArchive) Events() []FetchEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]FetchEvent(nil), a.events...)
}
