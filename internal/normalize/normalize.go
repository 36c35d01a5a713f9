// Package normalize turns raw adapter payloads into canonical, schema
// checked records. Normalization is pure: no I/O, no retries, no caching.
// A payload that cannot be shaped into its record kind fails with
// ErrValidation, which the executor treats like a permanent failure.
package normalize

import (
	"fmt"

	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/domain"
	e "github.com/hvidsten/skylight/internal/errors"
)

// Normalize validates raw and produces the canonical record for kind.
func Normalize(raw sources.RawResult, spec sources.FetchSpec) (*domain.Record, error) {
	if len(raw.Payload) == 0 {
		return nil, fmt.Errorf("%w: %s: empty payload", e.ErrValidation, spec.Kind)
	}

	record := &domain.Record{
		Kind:          spec.Kind,
		SchemaVersion: domain.SchemaVersion[spec.Kind],
		RetrievedAt:   raw.RetrievedAt,
	}

	var err error
	switch spec.Kind {
	case domain.KindStatistics:
		record.Statistics, err = normalizeStatistics(raw.Payload, raw.RetrievedAt)
	case domain.KindIncomeLimits:
		record.IncomeLimits, err = normalizeIncomeLimits(raw.Payload, spec.Params)
	case domain.KindNotices:
		record.Notices, err = normalizeNotices(raw.Payload, spec.Params)
	case domain.KindPrograms:
		record.Programs, err = normalizePrograms(raw.Payload)
	case domain.KindProjects:
		record.Projects, err = normalizeProjects(raw.Payload)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", e.ErrValidation, spec.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", e.ErrValidation, spec.Kind, err)
	}

	return record, nil
}
