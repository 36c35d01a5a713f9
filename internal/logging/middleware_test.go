package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hvidsten/skylight/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func newRequestRunner(t *testing.T, middleware func(http.HandlerFunc) http.HandlerFunc, buf *bytes.Buffer) func(method, path string) map[string]any {
	t.Helper()

	return func(method, path string) map[string]any {
		t.Helper()

		handler := middleware(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Info("test")
		})

		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(method, path, nil))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		buf.Reset()
		return entry
	}
}

func TestRequestLoggerMiddlewareMissingUserAgent(t *testing.T) {
	buf := &bytes.Buffer{}
	middleware := logging.NewRequestLoggerMiddleware(newJSONLogger(buf))

	run := newRequestRunner(t, middleware, buf)
	entry := run("GET", "/v1/notices")

	assert.Equal(t, "<missing>", entry["userAgent"])
	assert.Equal(t, "test", entry["msg"])
}

func TestRequestLoggersAreIndependent(t *testing.T) {
	buf := &bytes.Buffer{}
	middleware := logging.NewRequestLoggerMiddleware(newJSONLogger(buf))

	run := newRequestRunner(t, middleware, buf)
	first := run("GET", "/v1/notices")
	second := run("GET", "/v1/notices")

	assert.NotEqual(t, first["requestID"], second["requestID"])
}
