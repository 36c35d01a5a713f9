package ports

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	e "github.com/hvidsten/skylight/internal/errors"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{
			name:       "circuit open",
			err:        fmt.Errorf("%w: statistics: %w", e.ErrAcquisition, e.ErrCircuitOpen),
			statusCode: http.StatusServiceUnavailable,
		},
		{
			name:       "transient fetch failure",
			err:        fmt.Errorf("%w: notices: %w", e.ErrAcquisition, e.ErrTransientFetch),
			statusCode: http.StatusServiceUnavailable,
		},
		{
			name:       "no cache tier reachable",
			err:        fmt.Errorf("%w: no cache tier reachable", e.ErrTierUnavailable),
			statusCode: http.StatusServiceUnavailable,
		},
		{
			name:       "permanent fetch failure",
			err:        fmt.Errorf("%w: projects: %w", e.ErrAcquisition, e.ErrPermanentFetch),
			statusCode: http.StatusBadGateway,
		},
		{
			name:       "validation failure",
			err:        fmt.Errorf("%w: income_limits: %w", e.ErrAcquisition, e.ErrValidation),
			statusCode: http.StatusBadGateway,
		},
		{
			name:       "rejected request",
			err:        fmt.Errorf("%w: unknown data kind", e.ErrAcquisition),
			statusCode: http.StatusBadRequest,
		},
		{
			name:       "unexpected error",
			err:        errors.New("boom"),
			statusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			statusCode, cause := statusForError(tc.err)
			assert.Equal(t, tc.statusCode, statusCode)
			assert.NotEmpty(t, cause)
		})
	}
}
