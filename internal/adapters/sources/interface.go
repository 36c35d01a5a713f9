package sources

import (
	"context"
	"time"

	"github.com/hvidsten/skylight/internal/domain"
)

// FetchSpec describes what to fetch and from where. It is immutable once
// constructed; Params must not be mutated after being handed to a Source.
type FetchSpec struct {
	// Source identifies which adapter serves this spec ("dashboard",
	// "documents", "listings").
	Source string
	Kind   domain.Kind
	Params map[string]string
}

// RawResult is the unvalidated payload returned by a source adapter.
// Normalization happens elsewhere.
type RawResult struct {
	Payload     []byte
	ContentType string
	RetrievedAt time.Time
}

// Source is the uniform capability implemented by every external resource
// adapter. Implementations must not retry internally; retry and failure
// accounting are owned by the executor.
type Source interface {
	ID() string
	Fetch(ctx context.Context, spec FetchSpec) (RawResult, error)
}

const (
	SourceDashboard = "dashboard"
	SourceDocuments = "documents"
	SourceListings  = "listings"
)

// SourceForKind maps each data kind to the adapter that serves it.
func SourceForKind(kind domain.Kind) string {
	switch kind {
	case domain.KindIncomeLimits:
		return SourceDocuments
	case domain.KindNotices:
		return SourceListings
	default:
		return SourceDashboard
	}
}
