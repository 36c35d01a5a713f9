package executor

import (
	"fmt"
	"sync"
	"time"

	e "github.com/hvidsten/skylight/internal/errors"
)

// State captures circuit breaker states.
type State int

const (
	// StateClosed indicates normal operation.
	StateClosed State = iota
	// StateOpen indicates the breaker is rejecting calls.
	StateOpen
	// StateHalfOpen indicates a single trial call is permitted.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// breaker isolates one source identifier. All transitions happen here: the
// executor calls allow before touching the adapter and reports every
// attempt outcome back. Nothing else mutates breaker state.
type breaker struct {
	failureThreshold int
	cooldown         time.Duration

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	lastTransition      time.Time
	probeInFlight       bool
}

func newBreaker(failureThreshold int, cooldown time.Duration) *breaker {
	return &breaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		state:            StateClosed,
	}
}

// allow reports whether a call may proceed. In the half-open state only a
// single probe is admitted; everyone else is rejected until it resolves.
func (b *breaker) allow(now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if now.Sub(b.lastTransition) < b.cooldown {
			return fmt.Errorf("%w: cooling down until %s", e.ErrCircuitOpen, b.lastTransition.Add(b.cooldown).Format(time.RFC3339))
		}
		b.state = StateHalfOpen
		b.lastTransition = now
		b.probeInFlight = true
		return nil
	case StateHalfOpen:
		if b.probeInFlight {
			return fmt.Errorf("%w: probe in flight", e.ErrCircuitOpen)
		}
		b.probeInFlight = true
		return nil
	default:
		panic(fmt.Sprintf("logic error: unknown breaker state %d", int(b.state)))
	}
}

func (b *breaker) recordSuccess(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateClosed {
		b.lastTransition = now
	}
	b.state = StateClosed
	b.consecutiveFailures = 0
	b.probeInFlight = false
}

// recordFailure accounts one failed attempt and returns true if it opened
// the breaker.
func (b *breaker) recordFailure(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++
	b.probeInFlight = false

	switch b.state {
	case StateHalfOpen:
		// Failed probe: back to open, restart the cooldown
		b.state = StateOpen
		b.lastTransition = now
		return true
	case StateClosed:
		if b.consecutiveFailures >= b.failureThreshold {
			b.state = StateOpen
			b.lastTransition = now
			return true
		}
	}
	return false
}

func (b *breaker) currentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
