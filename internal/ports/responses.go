package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hvidsten/skylight/internal/acquire"
	e "github.com/hvidsten/skylight/internal/errors"
	"github.com/hvidsten/skylight/internal/reporting"
)

type envelope struct {
	Success     bool       `json:"success"`
	Origin      string     `json:"origin,omitempty"`
	RetrievedAt *time.Time `json:"retrievedAt,omitempty"`
	Data        any        `json:"data,omitempty"`
	Cause       string     `json:"cause,omitempty"`
}

// statusForError maps acquisition failures onto HTTP statuses. Outages
// that may resolve by themselves are 503; a source that answers with
// garbage or a permanent refusal is 502; everything else that the
// orchestrator rejected up front is the caller's fault.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrCircuitOpen),
		errors.Is(err, e.ErrTransientFetch),
		errors.Is(err, e.ErrTierUnavailable):
		return http.StatusServiceUnavailable, "temporarily unavailable"
	case errors.Is(err, e.ErrPermanentFetch), errors.Is(err, e.ErrValidation):
		return http.StatusBadGateway, "upstream data unavailable"
	case errors.Is(err, e.ErrAcquisition):
		return http.StatusBadRequest, "invalid request"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeData(ctx context.Context, w http.ResponseWriter, origin acquire.Origin, retrievedAt time.Time, data any) {
	writeJSON(ctx, w, http.StatusOK, envelope{
		Success:     true,
		Origin:      string(origin),
		RetrievedAt: &retrievedAt,
		Data:        data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode, cause := statusForError(err)
	writeJSON(ctx, w, statusCode, envelope{
		Success: false,
		Cause:   cause,
	})
}

func writeBadRequest(ctx context.Context, w http.ResponseWriter, cause string) {
	writeJSON(ctx, w, http.StatusBadRequest, envelope{
		Success: false,
		Cause:   cause,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, body envelope) {
	marshalled, err := json.Marshal(body)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"cause":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(marshalled)
}
