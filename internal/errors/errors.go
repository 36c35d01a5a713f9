package errors

import "errors"

// The acquisition pipeline distinguishes failures only by kind. Adapters,
// the executor and the orchestrator wrap one of these sentinels so callers
// can branch with errors.Is without knowing which component failed.
var (
	// ErrTransientFetch marks failures that may succeed on retry
	// (network errors, timeouts, rate limiting, upstream 5xx).
	ErrTransientFetch = errors.New("transient fetch error")

	// ErrPermanentFetch marks failures that retrying will not fix
	// (resource gone, unrecognizable payload).
	ErrPermanentFetch = errors.New("permanent fetch error")

	// ErrValidation marks a payload that fetched fine but failed
	// schema validation or normalization.
	ErrValidation = errors.New("validation error")

	// ErrCircuitOpen is returned without touching the source while its
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit open")

	// ErrTierUnavailable signals an unreachable cache tier. It is absorbed
	// by the tier manager and never surfaces to callers.
	ErrTierUnavailable = errors.New("cache tier unavailable")

	// ErrAcquisition is the final error surfaced to callers when a fetch
	// failed and no cached entry exists to fall back to.
	ErrAcquisition = errors.New("acquisition failed")
)
