package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/app"
	"github.com/hvidsten/skylight/internal/domain"
)

func projectsRecord(statuses ...string) *domain.Record {
	projects := make([]domain.ProjectDetails, 0, len(statuses))
	for _, status := range statuses {
		projects = append(projects, domain.ProjectDetails{
			ProjectName: "Midway Village",
			Location:    "Daly City",
			Status:      status,
		})
	}
	return &domain.Record{
		Kind:          domain.KindProjects,
		SchemaVersion: domain.SchemaVersion[domain.KindProjects],
		RetrievedAt:   testTime,
		Projects:      projects,
	}
}

func TestGetProjectsFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	acquirer := &fakeAcquirer{
		record: projectsRecord("complete", "construction", "complete"),
		origin: acquire.OriginCache,
	}
	getProjects := app.BuildGetProjects(acquirer, archive.NewMockFetchArchive(), nowFunc)

	result, err := getProjects(ctx, app.ProjectsQuery{Status: "Complete"})
	require.NoError(t, err)
	require.Len(t, result.Record.Projects, 2)
	for _, project := range result.Record.Projects {
		assert.Equal(t, "complete", project.Status)
	}

	// No filter returns everything
	result, err = getProjects(ctx, app.ProjectsQuery{})
	require.NoError(t, err)
	assert.Len(t, result.Record.Projects, 3)
}

func TestGetProjectsRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	getProjects := app.BuildGetProjects(&fakeAcquirer{}, archive.NewMockFetchArchive(), nowFunc)

	_, err := getProjects(ctx, app.ProjectsQuery{Status: "demolished"})
	assert.Error(t, err)
}
