// Package archive persists the fetch history so operators can trace what
// was acquired from where, and with what outcome, across restarts.
package archive

import (
	"context"
	"time"

	"github.com/hvidsten/skylight/internal/domain"
)

// FetchEvent is one completed acquisition, successful or not.
type FetchEvent struct {
	ID        string
	Kind      domain.Kind
	CacheKey  string
	Source    string
	Origin    string
	Success   bool
	Error     string
	Duration  time.Duration
	FetchedAt time.Time
}

type FetchArchive interface {
	RecordFetch(ctx context.Context, event FetchEvent) error
	// RecentFetches returns the newest events for a kind, newest first.
	RecentFetches(ctx context.Context, kind domain.Kind, limit int) ([]FetchEvent, error)
}
