package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/app"
	"github.com/hvidsten/skylight/internal/domain"
)

// kindAcquirer serves a different record per data kind, for operations
// that acquire several kinds in one call.
type kindAcquirer struct {
	records map[domain.Kind]*domain.Record
	errs    map[domain.Kind]error

	kinds []domain.Kind
}

func (f *kindAcquirer) Get(ctx context.Context, spec sources.FetchSpec, opts acquire.Options) (acquire.Result, error) {
	f.kinds = append(f.kinds, spec.Kind)
	if err := f.errs[spec.Kind]; err != nil {
		return acquire.Result{}, err
	}
	record, ok := f.records[spec.Kind]
	if !ok {
		return acquire.Result{}, errors.New("no record configured")
	}
	return acquire.Result{Record: record, Origin: acquire.OriginCache, CacheKey: acquire.CacheKey(spec)}, nil
}

func programsRecord() *domain.Record {
	return &domain.Record{
		Kind:          domain.KindPrograms,
		SchemaVersion: domain.SchemaVersion[domain.KindPrograms],
		RetrievedAt:   testTime,
		Programs: []domain.HousingProgram{
			{Name: "Housing Choice Voucher", Description: "Rental assistance", ProgramURL: "https://www.smcgov.org/housing/hcv"},
			{Name: "First-Time Homebuyer", Description: "Down payment loans", ProgramURL: "https://www.smcgov.org/housing/fthb"},
		},
	}
}

func TestSearchHousingDataAcrossKinds(t *testing.T) {
	ctx := context.Background()
	acquirer := &kindAcquirer{records: map[domain.Kind]*domain.Record{
		domain.KindNotices:    searchableNoticesRecord(),
		domain.KindStatistics: statisticsRecord(),
		domain.KindPrograms:   programsRecord(),
	}}
	searchHousingData := app.BuildSearchHousingData(acquirer, archive.NewMockFetchArchive(), nowFunc)

	hits, err := searchHousingData(ctx, app.SearchHousingDataQuery{Query: "housing"})
	require.NoError(t, err)

	// Three notice matches ranked first, then the matching program.
	// The statistics snapshot has no "housing" text in it.
	require.Len(t, hits, 4)
	assert.Equal(t, "notice", hits[0].Type)
	assert.Equal(t, "high", hits[0].Relevance)
	assert.Equal(t, "Affordable housing lottery opens", hits[0].Notice.Title)
	assert.Equal(t, "program", hits[3].Type)
	assert.Equal(t, "medium", hits[3].Relevance)
	assert.Equal(t, "Housing Choice Voucher", hits[3].Program.Name)

	assert.Equal(t, []domain.Kind{domain.KindNotices, domain.KindStatistics, domain.KindPrograms}, acquirer.kinds)
}

func TestSearchHousingDataMatchesStatisticsBreakdowns(t *testing.T) {
	ctx := context.Background()
	record := statisticsRecord()
	record.Statistics.UnitsByCity = map[string]int{"Daly City": 555}
	acquirer := &kindAcquirer{records: map[domain.Kind]*domain.Record{
		domain.KindStatistics: record,
	}}
	searchHousingData := app.BuildSearchHousingData(acquirer, archive.NewMockFetchArchive(), nowFunc)

	hits, err := searchHousingData(ctx, app.SearchHousingDataQuery{Query: "daly city", DataType: "statistics"})
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, "statistics", hits[0].Type)
	require.NotNil(t, hits[0].Statistics)
	assert.Equal(t, []domain.Kind{domain.KindStatistics}, acquirer.kinds)
}

func TestSearchHousingDataNarrowsToOneKind(t *testing.T) {
	ctx := context.Background()
	acquirer := &kindAcquirer{records: map[domain.Kind]*domain.Record{
		domain.KindPrograms: programsRecord(),
	}}
	searchHousingData := app.BuildSearchHousingData(acquirer, archive.NewMockFetchArchive(), nowFunc)

	hits, err := searchHousingData(ctx, app.SearchHousingDataQuery{Query: "homebuyer", DataType: "programs"})
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, "First-Time Homebuyer", hits[0].Program.Name)
	assert.Equal(t, []domain.Kind{domain.KindPrograms}, acquirer.kinds)
}

func TestSearchHousingDataAppliesLimit(t *testing.T) {
	ctx := context.Background()
	acquirer := &kindAcquirer{records: map[domain.Kind]*domain.Record{
		domain.KindNotices:    searchableNoticesRecord(),
		domain.KindStatistics: statisticsRecord(),
		domain.KindPrograms:   programsRecord(),
	}}
	searchHousingData := app.BuildSearchHousingData(acquirer, archive.NewMockFetchArchive(), nowFunc)

	hits, err := searchHousingData(ctx, app.SearchHousingDataQuery{Query: "housing", Limit: 2})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "notice", hits[0].Type)
	assert.Equal(t, "notice", hits[1].Type)
}

func TestSearchHousingDataAbsorbsOneFailingKind(t *testing.T) {
	ctx := context.Background()
	acquirer := &kindAcquirer{
		records: map[domain.Kind]*domain.Record{
			domain.KindNotices:    searchableNoticesRecord(),
			domain.KindStatistics: statisticsRecord(),
		},
		errs: map[domain.Kind]error{
			domain.KindPrograms: errors.New("the source is down"),
		},
	}
	searchHousingData := app.BuildSearchHousingData(acquirer, archive.NewMockFetchArchive(), nowFunc)

	hits, err := searchHousingData(ctx, app.SearchHousingDataQuery{Query: "housing"})
	require.NoError(t, err)
	require.Len(t, hits, 3)
}

func TestSearchHousingDataFailsWhenEveryKindFails(t *testing.T) {
	ctx := context.Background()
	sourceDown := errors.New("the source is down")
	acquirer := &kindAcquirer{errs: map[domain.Kind]error{
		domain.KindNotices:    sourceDown,
		domain.KindStatistics: sourceDown,
		domain.KindPrograms:   sourceDown,
	}}
	searchHousingData := app.BuildSearchHousingData(acquirer, archive.NewMockFetchArchive(), nowFunc)

	_, err := searchHousingData(ctx, app.SearchHousingDataQuery{Query: "housing"})
	require.ErrorIs(t, err, sourceDown)
}

func TestSearchHousingDataRejectsBadArguments(t *testing.T) {
	ctx := context.Background()
	acquirer := &kindAcquirer{}
	searchHousingData := app.BuildSearchHousingData(acquirer, archive.NewMockFetchArchive(), nowFunc)

	_, err := searchHousingData(ctx, app.SearchHousingDataQuery{Query: ""})
	assert.Error(t, err)

	_, err = searchHousingData(ctx, app.SearchHousingDataQuery{Query: "housing", DataType: "income_limits"})
	assert.Error(t, err)

	_, err = searchHousingData(ctx, app.SearchHousingDataQuery{Query: "housing", Limit: -1})
	assert.Error(t, err)

	assert.Empty(t, acquirer.kinds)
}
