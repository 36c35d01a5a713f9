package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/domain"
	e "github.com/hvidsten/skylight/internal/errors"
)

var projectStatuses = map[string]bool{
	"complete":       true,
	"predevelopment": true,
	"construction":   true,
}

type ProjectsQuery struct {
	// Status keeps only projects in the given phase. Empty means all.
	Status       string
	ForceRefresh bool
}

type GetProjects func(ctx context.Context, query ProjectsQuery) (RecordResult, error)

func BuildGetProjects(
	service Acquirer,
	fetchArchive archive.FetchArchive,
	nowFunc func() time.Time,
) GetProjects {
	return func(ctx context.Context, query ProjectsQuery) (RecordResult, error) {
		status := strings.ToLower(strings.TrimSpace(query.Status))
		if status != "" && !projectStatuses[status] {
			return RecordResult{}, fmt.Errorf("%w: unknown project status %q", e.ErrAcquisition, query.Status)
		}

		spec := sources.FetchSpec{
			Source: sources.SourceForKind(domain.KindProjects),
			Kind:   domain.KindProjects,
		}

		result, err := acquireAndArchive(ctx, service, fetchArchive, nowFunc, spec, acquire.Options{
			ForceRefresh: query.ForceRefresh,
		})
		if err != nil {
			return RecordResult{}, err
		}

		if status != "" {
			filtered := make([]domain.ProjectDetails, 0, len(result.Record.Projects))
			for _, project := range result.Record.Projects {
				if project.Status == status {
					filtered = append(filtered, project)
				}
			}
			record := *result.Record
			record.Projects = filtered
			result.Record = &record
		}

		return RecordResult{Record: result.Record, Origin: result.Origin}, nil
	}
}
