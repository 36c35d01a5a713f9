package acquire_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/adapters/tiers"
	"github.com/hvidsten/skylight/internal/domain"
	e "github.com/hvidsten/skylight/internal/errors"
	"github.com/hvidsten/skylight/internal/executor"
)

const noticesPayload = `<html><body>
<article class="notice"><a href="/notices/1">Annual plan hearing</a></article>
</body></html>`

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	payload []byte
	err     error
	gate    chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, spec sources.FetchSpec) (sources.RawResult, error) {
	f.mu.Lock()
	f.calls++
	payload, err, gate := f.payload, f.err, f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return sources.RawResult{}, err
	}
	return sources.RawResult{
		Payload:     payload,
		ContentType: "text/html",
		RetrievedAt: testTime,
	}, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func noticesSpec() sources.FetchSpec {
	return sources.FetchSpec{
		Source: sources.SourceListings,
		Kind:   domain.KindNotices,
	}
}

func newTestService(t *testing.T, fetcher acquire.Fetcher, now *time.Time) (*acquire.Service, *tiers.Manager) {
	t.Helper()

	manager, err := tiers.NewManager([]tiers.Tier{tiers.NewMockTier("memory")}, func() time.Time { return *now })
	require.NoError(t, err)

	service, err := acquire.NewService(
		fetcher,
		manager,
		func(kind domain.Kind) time.Duration { return time.Hour },
		func() time.Time { return *now },
	)
	require.NoError(t, err)

	return service, manager
}

func TestServiceFetchesOnCacheMiss(t *testing.T) {
	ctx := context.Background()
	now := testTime
	fetcher := &fakeFetcher{payload: []byte(noticesPayload)}
	service, _ := newTestService(t, fetcher, &now)

	result, err := service.Get(ctx, noticesSpec(), acquire.Options{})
	require.NoError(t, err)
	assert.Equal(t, acquire.OriginFresh, result.Origin)
	require.NotNil(t, result.Record)
	assert.Equal(t, domain.KindNotices, result.Record.Kind)
	require.Len(t, result.Record.Notices, 1)
	assert.Equal(t, "Annual plan hearing", result.Record.Notices[0].Title)
	assert.Equal(t, 1, fetcher.Calls())

	// The fetched record is now served from cache
	result, err = service.Get(ctx, noticesSpec(), acquire.Options{})
	require.NoError(t, err)
	assert.Equal(t, acquire.OriginCache, result.Origin)
	assert.Equal(t, 1, fetcher.Calls())
}

func TestServiceForceRefreshSkipsCache(t *testing.T) {
	ctx := context.Background()
	now := testTime
	fetcher := &fakeFetcher{payload: []byte(noticesPayload)}
	service, _ := newTestService(t, fetcher, &now)

	_, err := service.Get(ctx, noticesSpec(), acquire.Options{})
	require.NoError(t, err)

	result, err := service.Get(ctx, noticesSpec(), acquire.Options{ForceRefresh: true})
	require.NoError(t, err)
	assert.Equal(t, acquire.OriginFresh, result.Origin)
	assert.Equal(t, 2, fetcher.Calls())
}

func TestServiceRefetchesAfterTTL(t *testing.T) {
	ctx := context.Background()
	now := testTime
	fetcher := &fakeFetcher{payload: []byte(noticesPayload)}
	service, _ := newTestService(t, fetcher, &now)

	_, err := service.Get(ctx, noticesSpec(), acquire.Options{})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)

	result, err := service.Get(ctx, noticesSpec(), acquire.Options{})
	require.NoError(t, err)
	assert.Equal(t, acquire.OriginFresh, result.Origin)
	assert.Equal(t, 2, fetcher.Calls())
}

func TestServiceServesStaleWhenFetchFails(t *testing.T) {
	ctx := context.Background()
	now := testTime
	fetcher := &fakeFetcher{payload: []byte(noticesPayload)}
	service, _ := newTestService(t, fetcher, &now)

	_, err := service.Get(ctx, noticesSpec(), acquire.Options{})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	fetcher.mu.Lock()
	fetcher.err = fmt.Errorf("%w: circuit open for listings", e.ErrCircuitOpen)
	fetcher.mu.Unlock()

	result, err := service.Get(ctx, noticesSpec(), acquire.Options{})
	require.NoError(t, err)
	assert.Equal(t, acquire.OriginStale, result.Origin)
	require.Len(t, result.Record.Notices, 1)
}

func TestServiceForceRefreshFallsBackToStale(t *testing.T) {
	ctx := context.Background()
	now := testTime
	fetcher := &fakeFetcher{payload: []byte(noticesPayload)}
	service, _ := newTestService(t, fetcher, &now)

	_, err := service.Get(ctx, noticesSpec(), acquire.Options{})
	require.NoError(t, err)

	fetcher.mu.Lock()
	fetcher.err = fmt.Errorf("%w: circuit open for listings", e.ErrCircuitOpen)
	fetcher.mu.Unlock()

	result, err := service.Get(ctx, noticesSpec(), acquire.Options{ForceRefresh: true})
	require.NoError(t, err)
	assert.Equal(t, acquire.OriginStale, result.Origin)
}

func TestServiceFailsWithoutFallback(t *testing.T) {
	ctx := context.Background()
	now := testTime
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: connection refused", e.ErrTransientFetch)}
	service, _ := newTestService(t, fetcher, &now)

	_, err := service.Get(ctx, noticesSpec(), acquire.Options{})
	require.ErrorIs(t, err, e.ErrAcquisition)
	require.ErrorIs(t, err, e.ErrTransientFetch)
}

func TestServiceRejectsUnknownKind(t *testing.T) {
	ctx := context.Background()
	now := testTime
	service, _ := newTestService(t, &fakeFetcher{}, &now)

	_, err := service.Get(ctx, sources.FetchSpec{Source: "dashboard", Kind: "bogus"}, acquire.Options{})
	require.ErrorIs(t, err, e.ErrAcquisition)
}

func TestServiceDiscardsMismatchedSchemaVersion(t *testing.T) {
	ctx := context.Background()
	now := testTime
	fetcher := &fakeFetcher{payload: []byte(noticesPayload)}
	service, manager := newTestService(t, fetcher, &now)

	// Seed the cache with a record written by an older schema
	outdated := domain.Record{
		Kind:          domain.KindNotices,
		SchemaVersion: domain.SchemaVersion[domain.KindNotices] - 1,
		RetrievedAt:   now,
	}
	value, err := json.Marshal(outdated)
	require.NoError(t, err)
	key := acquire.CacheKey(noticesSpec())
	require.NoError(t, manager.Set(ctx, key, tiers.Entry{Value: value, FetchedAt: now, TTL: time.Hour}))

	result, err := service.Get(ctx, noticesSpec(), acquire.Options{})
	require.NoError(t, err)
	assert.Equal(t, acquire.OriginFresh, result.Origin)
	assert.Equal(t, 1, fetcher.Calls())
}

func TestServiceSharesConcurrentFetches(t *testing.T) {
	ctx := context.Background()
	now := testTime
	gate := make(chan struct{})
	fetcher := &fakeFetcher{payload: []byte(noticesPayload), gate: gate}
	service, _ := newTestService(t, fetcher, &now)

	const callers = 5
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := service.Get(ctx, noticesSpec(), acquire.Options{})
			results <- err
		}()
	}

	// Give every caller time to join the in-flight fetch
	time.Sleep(50 * time.Millisecond)
	close(gate)

	for i := 0; i < callers; i++ {
		require.NoError(t, <-results)
	}
	assert.Equal(t, 1, fetcher.Calls())
}

func TestServiceRetriesThroughExecutorAndSharesResult(t *testing.T) {
	ctx := context.Background()
	now := testTime
	gate := make(chan struct{})

	failUntilOpen := func(spec sources.FetchSpec) (sources.RawResult, error) {
		<-gate
		return sources.RawResult{}, fmt.Errorf("%w: connection reset", e.ErrTransientFetch)
	}
	fail := func(spec sources.FetchSpec) (sources.RawResult, error) {
		return sources.RawResult{}, fmt.Errorf("%w: connection reset", e.ErrTransientFetch)
	}
	succeed := func(spec sources.FetchSpec) (sources.RawResult, error) {
		return sources.RawResult{
			Payload:     []byte(noticesPayload),
			ContentType: "text/html",
			RetrievedAt: testTime,
		}, nil
	}
	source := sources.NewMockSource(sources.SourceListings, failUntilOpen, fail, succeed)

	exec, err := executor.New(
		sources.NewRegistry(source),
		executor.Options{
			MaxRetries:       3,
			BackoffBase:      500 * time.Millisecond,
			BackoffMax:       30 * time.Second,
			FailureThreshold: 5,
			Cooldown:         60 * time.Second,
		},
		func() time.Time { return now },
		func(ctx context.Context, d time.Duration) error { return nil },
	)
	require.NoError(t, err)

	service, _ := newTestService(t, exec, &now)

	type outcome struct {
		result acquire.Result
		err    error
	}

	const callers = 3
	results := make(chan outcome, callers)
	for i := 0; i < callers; i++ {
		go func() {
			result, err := service.Get(ctx, noticesSpec(), acquire.Options{})
			results <- outcome{result: result, err: err}
		}()
	}

	// Give every caller time to join the in-flight fetch
	time.Sleep(50 * time.Millisecond)
	close(gate)

	for i := 0; i < callers; i++ {
		got := <-results
		require.NoError(t, got.err)
		assert.Equal(t, acquire.OriginFresh, got.result.Origin)
		require.Len(t, got.result.Record.Notices, 1)
	}
	assert.Equal(t, 3, source.Calls())
}

func TestServiceCallerTimeoutDoesNotCancelFetch(t *testing.T) {
	now := testTime
	gate := make(chan struct{})
	fetcher := &fakeFetcher{payload: []byte(noticesPayload), gate: gate}
	service, _ := newTestService(t, fetcher, &now)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := service.Get(ctx, noticesSpec(), acquire.Options{})
	require.ErrorIs(t, err, e.ErrAcquisition)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The abandoned fetch completes and populates the cache
	close(gate)
	require.Eventually(t, func() bool {
		result, err := service.Get(context.Background(), noticesSpec(), acquire.Options{})
		return err == nil && result.Origin == acquire.OriginCache
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, fetcher.Calls())
}

func TestCacheKeyIsDeterministic(t *testing.T) {
	a := sources.FetchSpec{
		Kind:   domain.KindNotices,
		Params: map[string]string{"limit": "5", "days": "30"},
	}
	b := sources.FetchSpec{
		Kind:   domain.KindNotices,
		Params: map[string]string{"days": "30", "limit": "5"},
	}

	assert.Equal(t, acquire.CacheKey(a), acquire.CacheKey(b))
	assert.Equal(t, "notices:days:30:limit:5", acquire.CacheKey(a))

	bare := sources.FetchSpec{Kind: domain.KindNotices}
	assert.Equal(t, "notices", acquire.CacheKey(bare))
	assert.NotEqual(t, acquire.CacheKey(a), acquire.CacheKey(bare))
}
