package sources

import (
	"context"
	"sync"
	"time"
)

// mockSource replays canned results and records every call. Used by the
// executor and acquisition tests; also handy from the debug CLI.
type mockSource struct {
	id string

	mu      sync.Mutex
	calls   int
	results []func(spec FetchSpec) (RawResult, error)
}

func NewMockSource(id string, results ...func(spec FetchSpec) (RawResult, error)) *mockSource {
	return &mockSource{id: id, results: results}
}

func (s *mockSource) ID() string {
	return s.id
}

func (s *mockSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *mockSource) Fetch(ctx context.Context, spec FetchSpec) (RawResult, error) {
	s.mu.Lock()
	call := s.calls
	s.calls++
	s.mu.Unlock()

	if len(s.results) == 0 {
		return RawResult{Payload: []byte("{}"), ContentType: "application/json", RetrievedAt: time.Now()}, nil
	}
	if call >= len(s.results) {
		// Keep replaying the last result
		call = len(s.results) - 1
	}
	return s.results[call](spec)
}
