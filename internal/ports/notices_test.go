package ports_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/app"
	"github.com/hvidsten/skylight/internal/domain"
	e "github.com/hvidsten/skylight/internal/errors"
	"github.com/hvidsten/skylight/internal/ports"
)

func noopSentryMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return next
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testOrigins(t *testing.T) *ports.DomainSuffixes {
	t.Helper()
	origins, err := ports.NewDomainSuffixes("smcgov.org")
	require.NoError(t, err)
	return origins
}

func noticesRecord() *domain.Record {
	published := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	return &domain.Record{
		Kind:          domain.KindNotices,
		SchemaVersion: domain.SchemaVersion[domain.KindNotices],
		RetrievedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Notices: []domain.PublicNotice{
			{
				Title:         "Draft annual action plan",
				DatePublished: &published,
				NoticeType:    "hearing",
				ContentURL:    "https://www.smcgov.org/notices/1",
			},
		},
	}
}

func TestGetNoticesHandler(t *testing.T) {
	var gotQuery app.NoticesQuery
	getNotices := func(ctx context.Context, query app.NoticesQuery) (app.RecordResult, error) {
		gotQuery = query
		return app.RecordResult{Record: noticesRecord(), Origin: acquire.OriginCache}, nil
	}

	handler := ports.MakeGetNoticesHandler(getNotices, testOrigins(t), testLogger(), noopSentryMiddleware)

	request := httptest.NewRequest("GET", "/v1/notices?limit=10&days=30", nil)
	recorder := httptest.NewRecorder()
	handler(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.Equal(t, app.NoticesQuery{Limit: 10, Days: 30}, gotQuery)

	var body struct {
		Success bool   `json:"success"`
		Origin  string `json:"origin"`
		Data    []struct {
			Title      string `json:"title"`
			NoticeType string `json:"noticeType"`
			ContentURL string `json:"contentUrl"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "cache", body.Origin)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Draft annual action plan", body.Data[0].Title)
	assert.Equal(t, "hearing", body.Data[0].NoticeType)
}

func TestGetNoticesHandlerRejectsBadParams(t *testing.T) {
	getNotices := func(ctx context.Context, query app.NoticesQuery) (app.RecordResult, error) {
		t.Fatal("handler should not reach the app layer")
		return app.RecordResult{}, nil
	}

	handler := ports.MakeGetNoticesHandler(getNotices, testOrigins(t), testLogger(), noopSentryMiddleware)

	for _, target := range []string{
		"/v1/notices?limit=0",
		"/v1/notices?limit=abc",
		"/v1/notices?days=9999",
		"/v1/notices?refresh=maybe",
	} {
		request := httptest.NewRequest("GET", target, nil)
		recorder := httptest.NewRecorder()
		handler(recorder, request)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, target)
	}
}

func TestGetNoticesHandlerMapsAcquisitionErrors(t *testing.T) {
	getNotices := func(ctx context.Context, query app.NoticesQuery) (app.RecordResult, error) {
		return app.RecordResult{}, fmt.Errorf("%w: notices: %w", e.ErrAcquisition, e.ErrCircuitOpen)
	}

	handler := ports.MakeGetNoticesHandler(getNotices, testOrigins(t), testLogger(), noopSentryMiddleware)

	request := httptest.NewRequest("GET", "/v1/notices", nil)
	recorder := httptest.NewRecorder()
	handler(recorder, request)

	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	var body struct {
		Success bool   `json:"success"`
		Cause   string `json:"cause"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "temporarily unavailable", body.Cause)
}

func TestCORSPreflightOnNotices(t *testing.T) {
	getNotices := func(ctx context.Context, query app.NoticesQuery) (app.RecordResult, error) {
		return app.RecordResult{Record: noticesRecord(), Origin: acquire.OriginCache}, nil
	}

	handler := ports.MakeGetNoticesHandler(getNotices, testOrigins(t), testLogger(), noopSentryMiddleware)

	request := httptest.NewRequest(http.MethodOptions, "/v1/notices", nil)
	request.Header.Set("Origin", "https://housing.smcgov.org")
	recorder := httptest.NewRecorder()
	handler(recorder, request)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "https://housing.smcgov.org", recorder.Header().Get("Access-Control-Allow-Origin"))
}
