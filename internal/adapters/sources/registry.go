package sources

import (
	"context"
	"fmt"
	"time"

	e "github.com/hvidsten/skylight/internal/errors"
)

// Registry dispatches fetch specs to the adapter named by spec.Source.
// Callers never branch on adapter identity, only on error kinds.
type Registry struct {
	sources map[string]Source
}

func NewRegistry(sources ...Source) *Registry {
	byID := make(map[string]Source, len(sources))
	for _, source := range sources {
		byID[source.ID()] = source
	}
	return &Registry{sources: byID}
}

func (r *Registry) Fetch(ctx context.Context, spec FetchSpec) (RawResult, error) {
	source, ok := r.sources[spec.Source]
	if !ok {
		return RawResult{}, fmt.Errorf("%w: unknown source %q", e.ErrPermanentFetch, spec.Source)
	}
	return source.Fetch(ctx, spec)
}

// NewDefaultRegistry wires the three county-site adapters behind one
// politeness limiter.
func NewDefaultRegistry(httpClient HttpClient, requestDelay time.Duration) *Registry {
	limiter := NewPolitenessLimiter(requestDelay)
	return NewRegistry(
		NewDashboardSource(httpClient, limiter, time.Now),
		NewDocumentSource(httpClient, limiter, time.Now),
		NewListingSource(httpClient, limiter, time.Now),
	)
}
