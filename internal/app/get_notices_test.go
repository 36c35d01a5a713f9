package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/app"
	"github.com/hvidsten/skylight/internal/domain"
)

func noticesRecord(dates ...*time.Time) *domain.Record {
	notices := make([]domain.PublicNotice, 0, len(dates))
	for _, date := range dates {
		notices = append(notices, domain.PublicNotice{
			Title:         "Notice",
			NoticeType:    "announcement",
			ContentURL:    "https://www.smcgov.org/notices",
			DatePublished: date,
		})
	}
	return &domain.Record{
		Kind:          domain.KindNotices,
		SchemaVersion: domain.SchemaVersion[domain.KindNotices],
		RetrievedAt:   testTime,
		Notices:       notices,
	}
}

func datePtr(t time.Time) *time.Time {
	return &t
}

func TestGetNoticesPassesLimitParam(t *testing.T) {
	ctx := context.Background()
	acquirer := &fakeAcquirer{record: noticesRecord(), origin: acquire.OriginFresh}
	getNotices := app.BuildGetNotices(acquirer, archive.NewMockFetchArchive(), nowFunc)

	_, err := getNotices(ctx, app.NoticesQuery{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"limit": "5"}, acquirer.lastSpec.Params)
}

func TestGetNoticesFiltersByDate(t *testing.T) {
	ctx := context.Background()
	recent := datePtr(testTime.AddDate(0, 0, -3))
	old := datePtr(testTime.AddDate(0, 0, -45))
	acquirer := &fakeAcquirer{
		record: noticesRecord(recent, old, nil),
		origin: acquire.OriginCache,
	}
	getNotices := app.BuildGetNotices(acquirer, archive.NewMockFetchArchive(), nowFunc)

	result, err := getNotices(ctx, app.NoticesQuery{Days: 30})
	require.NoError(t, err)

	// The old notice is dropped; the undated one is kept
	require.Len(t, result.Record.Notices, 2)
	assert.Equal(t, recent, result.Record.Notices[0].DatePublished)
	assert.Nil(t, result.Record.Notices[1].DatePublished)

	// The underlying record is not mutated by the filter
	require.Len(t, acquirer.record.Notices, 3)
}

func TestGetNoticesRejectsNegativeValues(t *testing.T) {
	ctx := context.Background()
	getNotices := app.BuildGetNotices(&fakeAcquirer{}, archive.NewMockFetchArchive(), nowFunc)

	_, err := getNotices(ctx, app.NoticesQuery{Limit: -1})
	assert.Error(t, err)

	_, err = getNotices(ctx, app.NoticesQuery{Days: -1})
	assert.Error(t, err)
}
