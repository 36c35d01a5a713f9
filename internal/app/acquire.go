package app

import (
	"context"
	"time"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/domain"
	"github.com/hvidsten/skylight/internal/logging"
)

// Acquirer is the orchestrator's surface as seen by the app layer.
type Acquirer interface {
	Get(ctx context.Context, spec sources.FetchSpec, opts acquire.Options) (acquire.Result, error)
}

// RecordResult is what every data operation hands to its caller: the
// record plus where it came from.
type RecordResult struct {
	Record *domain.Record
	Origin acquire.Origin
}

// acquireAndArchive runs one acquisition and logs it to the fetch
// archive. Archive trouble never fails the acquisition itself.
func acquireAndArchive(
	ctx context.Context,
	service Acquirer,
	fetchArchive archive.FetchArchive,
	nowFunc func() time.Time,
	spec sources.FetchSpec,
	opts acquire.Options,
) (acquire.Result, error) {
	start := nowFunc()
	result, err := service.Get(ctx, spec, opts)
	finished := nowFunc()

	event := archive.FetchEvent{
		Kind:      spec.Kind,
		CacheKey:  result.CacheKey,
		Source:    spec.Source,
		Origin:    string(result.Origin),
		Success:   err == nil,
		Duration:  finished.Sub(start),
		FetchedAt: finished,
	}
	if err != nil {
		event.Error = err.Error()
		event.CacheKey = acquire.CacheKey(spec)
	}
	// Archive on a detached, bounded context so a caller hanging up or a
	// slow database never affects the response.
	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 1*time.Second)
	defer cancel()
	if archiveErr := fetchArchive.RecordFetch(archiveCtx, event); archiveErr != nil {
		logging.FromContext(ctx).Warn("Failed to archive fetch event", "kind", string(spec.Kind), "error", archiveErr.Error())
	}

	return result, err
}
