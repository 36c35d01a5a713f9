// Package executor wraps source adapter calls with retry, backoff and
// per-source circuit breaking. It is the single owner of failure
// accounting: adapters must not retry internally.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hvidsten/skylight/internal/adapters/sources"
	e "github.com/hvidsten/skylight/internal/errors"
	"github.com/hvidsten/skylight/internal/logging"
)

type Fetcher interface {
	Fetch(ctx context.Context, spec sources.FetchSpec) (sources.RawResult, error)
}

type Options struct {
	// MaxRetries is the total number of attempts per call, not counting
	// fast-failed circuit-open rejections.
	MaxRetries       int
	BackoffBase      time.Duration
	BackoffMax       time.Duration
	FailureThreshold int
	Cooldown         time.Duration
}

type Executor struct {
	fetcher Fetcher
	options Options

	nowFunc   func() time.Time
	sleepFunc func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	breakers map[string]*breaker

	metrics executorMetricsCollection
}

func New(
	fetcher Fetcher,
	options Options,
	nowFunc func() time.Time,
	sleepFunc func(ctx context.Context, d time.Duration) error,
) (*Executor, error) {
	if options.MaxRetries < 1 {
		return nil, fmt.Errorf("executor: MaxRetries must be at least 1, got %d", options.MaxRetries)
	}
	if options.FailureThreshold < 1 {
		return nil, fmt.Errorf("executor: FailureThreshold must be at least 1, got %d", options.FailureThreshold)
	}
	if nowFunc == nil {
		nowFunc = time.Now
	}
	if sleepFunc == nil {
		sleepFunc = sleepContext
	}

	meter := otel.Meter("executor")
	metrics, err := setupExecutorMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &Executor{
		fetcher:   fetcher,
		options:   options,
		nowFunc:   nowFunc,
		sleepFunc: sleepFunc,
		breakers:  make(map[string]*breaker),
		metrics:   metrics,
	}, nil
}

// Fetch runs the adapter call for spec under the retry and breaker policy.
// It returns the raw result, ErrCircuitOpen without touching the adapter,
// or the last adapter error once retries are exhausted.
func (x *Executor) Fetch(ctx context.Context, spec sources.FetchSpec) (sources.RawResult, error) {
	logger := logging.FromContext(ctx)
	br := x.breakerFor(spec.Source)

	if err := br.allow(x.nowFunc()); err != nil {
		x.metrics.rejectedCount.Add(ctx, 1, metric.WithAttributes(attribute.String("source", spec.Source)))
		return sources.RawResult{}, err
	}

	var lastErr error
	for attempt := 0; attempt < x.options.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := x.sleepFunc(ctx, x.backoffDelay(attempt-1)); err != nil {
				return sources.RawResult{}, fmt.Errorf("%w: %w", e.ErrTransientFetch, err)
			}
		}

		result, err := x.fetcher.Fetch(ctx, spec)
		x.metrics.attemptCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", spec.Source),
			attribute.Bool("success", err == nil),
		))
		if err == nil {
			br.recordSuccess(x.nowFunc())
			return result, nil
		}
		lastErr = err

		if opened := br.recordFailure(x.nowFunc()); opened {
			logger.Warn("Circuit breaker opened", "source", spec.Source)
			x.metrics.openedCount.Add(ctx, 1, metric.WithAttributes(attribute.String("source", spec.Source)))
			// No point retrying against a source we just isolated
			return sources.RawResult{}, err
		}

		if !errors.Is(err, e.ErrTransientFetch) {
			// Permanent and validation failures don't improve on retry
			return sources.RawResult{}, err
		}

		logger.Info("Retrying fetch", "source", spec.Source, "attempt", attempt+1, "error", err.Error())
	}

	return sources.RawResult{}, fmt.Errorf("retries exhausted: %w", lastErr)
}

// BreakerState exposes the current state for a source, for diagnostics.
func (x *Executor) BreakerState(source string) State {
	return x.breakerFor(source).currentState()
}

func (x *Executor) breakerFor(source string) *breaker {
	x.mu.Lock()
	defer x.mu.Unlock()

	br, ok := x.breakers[source]
	if !ok {
		br = newBreaker(x.options.FailureThreshold, x.options.Cooldown)
		x.breakers[source] = br
	}
	return br
}

func (x *Executor) backoffDelay(attempt int) time.Duration {
	delay := x.options.BackoffBase << uint(attempt)
	if delay > x.options.BackoffMax || delay <= 0 {
		delay = x.options.BackoffMax
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type executorMetricsCollection struct {
	attemptCount  metric.Int64Counter
	rejectedCount metric.Int64Counter
	openedCount   metric.Int64Counter
}

func setupExecutorMetrics(meter metric.Meter) (executorMetricsCollection, error) {
	attemptCount, err := meter.Int64Counter("executor/fetch_attempts")
	if err != nil {
		return executorMetricsCollection{}, fmt.Errorf("failed to create metric: %w", err)
	}
	rejectedCount, err := meter.Int64Counter("executor/circuit_rejections")
	if err != nil {
		return executorMetricsCollection{}, fmt.Errorf("failed to create metric: %w", err)
	}
	openedCount, err := meter.Int64Counter("executor/circuit_opened")
	if err != nil {
		return executorMetricsCollection{}, fmt.Errorf("failed to create metric: %w", err)
	}

	return executorMetricsCollection{
		attemptCount:  attemptCount,
		rejectedCount: rejectedCount,
		openedCount:   openedCount,
	}, nil
}
