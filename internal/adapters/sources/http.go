package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	e "github.com/hvidsten/skylight/internal/errors"
	"github.com/hvidsten/skylight/internal/logging"
)

const userAgent = "skylight/1.0 (+https://github.com/hvidsten/skylight)"

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// httpSource implements Source for one section of the county site. All
// three adapters share this shape and differ only in how they map a spec
// to a URL.
type httpSource struct {
	id         string
	httpClient HttpClient
	limiter    *rate.Limiter
	urlFor     func(spec FetchSpec) (string, error)
	nowFunc    func() time.Time
}

func (s *httpSource) ID() string {
	return s.id
}

func (s *httpSource) Fetch(ctx context.Context, spec FetchSpec) (RawResult, error) {
	logger := logging.FromContext(ctx)

	url, err := s.urlFor(spec)
	if err != nil {
		return RawResult{}, fmt.Errorf("%w: %w", e.ErrPermanentFetch, err)
	}

	// Politeness delay shared across all adapters hitting the county site
	if err := s.limiter.Wait(ctx); err != nil {
		return RawResult{}, fmt.Errorf("%w: %w", e.ErrTransientFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Error("Failed to create request", "error", err)
		return RawResult{}, fmt.Errorf("%w: %w", e.ErrPermanentFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Error("Failed to send request", "source", s.id, "error", err)
		return RawResult{}, fmt.Errorf("%w: %w", e.ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	if err := errorFromStatus(resp.StatusCode); err != nil {
		logger.Error("Request failed", "source", s.id, "statusCode", resp.StatusCode)
		return RawResult{}, err
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("Failed to read response body", "source", s.id, "error", err)
		return RawResult{}, fmt.Errorf("%w: %w", e.ErrTransientFetch, err)
	}

	return RawResult{
		Payload:     payload,
		ContentType: resp.Header.Get("Content-Type"),
		RetrievedAt: s.nowFunc(),
	}, nil
}

func errorFromStatus(statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: rate limited (status %d)", e.ErrTransientFetch, statusCode)
	case statusCode >= 500:
		return fmt.Errorf("%w: upstream error (status %d)", e.ErrTransientFetch, statusCode)
	default:
		// 404/410 and friends: the resource is gone, retrying won't help
		return fmt.Errorf("%w: resource unavailable (status %d)", e.ErrPermanentFetch, statusCode)
	}
}
