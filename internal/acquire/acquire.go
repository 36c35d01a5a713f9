// Package acquire implements the acquisition orchestrator: the single
// entry point that decides between serving from cache, fetching fresh
// through the executor, and falling back to stale data.
package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/adapters/tiers"
	"github.com/hvidsten/skylight/internal/domain"
	e "github.com/hvidsten/skylight/internal/errors"
	"github.com/hvidsten/skylight/internal/logging"
	"github.com/hvidsten/skylight/internal/normalize"
)

// Origin tells the caller where the returned record came from.
type Origin string

const (
	// OriginFresh means the record was fetched from the source just now.
	OriginFresh Origin = "fresh"
	// OriginCache means a cached record within its TTL was served.
	OriginCache Origin = "cache"
	// OriginStale means an expired cached record was served because the
	// source could not be reached.
	OriginStale Origin = "stale"
)

type Options struct {
	// TTL overrides the per-kind default when positive.
	TTL time.Duration
	// ForceRefresh skips the cache lookup. The circuit breaker still
	// applies; a forced refresh against an open circuit falls back to
	// stale data like any other failed fetch.
	ForceRefresh bool
}

type Result struct {
	Record   *domain.Record
	Origin   Origin
	CacheKey string
}

// Fetcher is the executor's surface as seen by the orchestrator.
type Fetcher interface {
	Fetch(ctx context.Context, spec sources.FetchSpec) (sources.RawResult, error)
}

// Cache is the tier manager's surface as seen by the orchestrator.
type Cache interface {
	Get(ctx context.Context, key string) (tiers.Entry, string, error)
	GetStale(ctx context.Context, key string) (tiers.Entry, string, error)
	Set(ctx context.Context, key string, entry tiers.Entry) error
}

type Service struct {
	fetcher    Fetcher
	cache      Cache
	ttlForKind func(kind domain.Kind) time.Duration
	nowFunc    func() time.Time

	group singleflight.Group
}

func NewService(
	fetcher Fetcher,
	cache Cache,
	ttlForKind func(kind domain.Kind) time.Duration,
	nowFunc func() time.Time,
) (*Service, error) {
	if fetcher == nil || cache == nil || ttlForKind == nil {
		return nil, errors.New("acquire: fetcher, cache and ttlForKind are required")
	}
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &Service{
		fetcher:    fetcher,
		cache:      cache,
		ttlForKind: ttlForKind,
		nowFunc:    nowFunc,
	}, nil
}

// Get returns the record for spec, serving from cache when fresh and
// otherwise fetching through the executor. Concurrent calls for the same
// key share one fetch. The caller's context bounds only the wait: a
// fetch in flight keeps running so its result can still populate the
// cache for later callers.
func (s *Service) Get(ctx context.Context, spec sources.FetchSpec, opts Options) (Result, error) {
	logger := logging.FromContext(ctx)

	if !spec.Kind.Valid() {
		return Result{}, fmt.Errorf("%w: unknown data kind %q", e.ErrAcquisition, spec.Kind)
	}

	key := CacheKey(spec)
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = s.ttlForKind(spec.Kind)
	}

	if !opts.ForceRefresh {
		if record, ok := s.cachedRecord(ctx, key, spec.Kind); ok {
			return Result{Record: record, Origin: OriginCache, CacheKey: key}, nil
		}
	}

	ch := s.group.DoChan(key, func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx), spec, key, ttl)
	})

	var fetchErr error
	select {
	case <-ctx.Done():
		fetchErr = ctx.Err()
	case res := <-ch:
		if res.Err == nil {
			return Result{Record: res.Val.(*domain.Record), Origin: OriginFresh, CacheKey: key}, nil
		}
		fetchErr = res.Err
	}

	if record, ok := s.staleRecord(ctx, key, spec.Kind); ok {
		logger.Warn("Serving stale record after failed fetch", "kind", string(spec.Kind), "error", fetchErr.Error())
		return Result{Record: record, Origin: OriginStale, CacheKey: key}, nil
	}

	return Result{}, fmt.Errorf("%w: %s: %w", e.ErrAcquisition, spec.Kind, fetchErr)
}

func (s *Service) refresh(ctx context.Context, spec sources.FetchSpec, key string, ttl time.Duration) (*domain.Record, error) {
	logger := logging.FromContext(ctx)

	raw, err := s.fetcher.Fetch(ctx, spec)
	if err != nil {
		return nil, err
	}

	record, err := normalize.Normalize(raw, spec)
	if err != nil {
		return nil, err
	}

	value, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	entry := tiers.Entry{
		Value:     value,
		FetchedAt: record.RetrievedAt,
		TTL:       ttl,
	}
	if err := s.cache.Set(ctx, key, entry); err != nil {
		// Cache trouble must not lose a successful fetch
		logger.Warn("Failed to cache record", "kind", string(spec.Kind), "error", err.Error())
	}

	return record, nil
}

func (s *Service) cachedRecord(ctx context.Context, key string, kind domain.Kind) (*domain.Record, bool) {
	entry, _, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return decodeEntry(ctx, entry, kind)
}

func (s *Service) staleRecord(ctx context.Context, key string, kind domain.Kind) (*domain.Record, bool) {
	entry, _, err := s.cache.GetStale(ctx, key)
	if err != nil {
		return nil, false
	}
	return decodeEntry(ctx, entry, kind)
}

// decodeEntry unmarshals a cached record and rejects entries written by
// an older schema. A version mismatch is treated as a miss so the record
// gets refetched rather than served in an unexpected shape.
func decodeEntry(ctx context.Context, entry tiers.Entry, kind domain.Kind) (*domain.Record, bool) {
	var record domain.Record
	if err := json.Unmarshal(entry.Value, &record); err != nil {
		logging.FromContext(ctx).Warn("Discarding corrupt cache entry", "kind", string(kind), "error", err.Error())
		return nil, false
	}
	if record.Kind != kind || record.SchemaVersion != domain.SchemaVersion[kind] {
		logging.FromContext(ctx).Warn(
			"Discarding cache entry with mismatched schema",
			"kind", string(kind),
			"schemaVersion", record.SchemaVersion,
		)
		return nil, false
	}
	return &record, true
}
