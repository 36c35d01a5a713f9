package normalize

import (
	"fmt"
	"strings"

	"github.com/hvidsten/skylight/internal/domain"
)

var projectStatuses = map[string]bool{
	"complete":       true,
	"predevelopment": true,
	"construction":   true,
}

// The projects dashboard renders one table with columns: project name,
// location, status, total units, affordable units.
func normalizeProjects(payload []byte) ([]domain.ProjectDetails, error) {
	var projects []domain.ProjectDetails
	for _, table := range extractTables(payload) {
		if _, ok := attrValue(table.attrs, "data-year"); ok {
			continue
		}
		for i, cells := range table.rows {
			if len(cells) != 5 {
				return nil, fmt.Errorf("row %d: expected 5 columns, got %d", i, len(cells))
			}

			status := strings.ToLower(strings.TrimSpace(cells[2]))
			if i == 0 && !projectStatuses[status] {
				// Header row
				continue
			}

			name := strings.TrimSpace(cells[0])
			if name == "" {
				return nil, fmt.Errorf("row %d: project without a name", i)
			}
			if !projectStatuses[status] {
				return nil, fmt.Errorf("project %q: unknown status %q", name, cells[2])
			}

			project := domain.ProjectDetails{
				ProjectName: name,
				Location:    strings.TrimSpace(cells[1]),
				Status:      status,
			}

			if cells[3] != "" {
				total, err := parseInt(cells[3])
				if err != nil {
					return nil, fmt.Errorf("project %q: %w", name, err)
				}
				project.TotalUnits = &total
			}
			if cells[4] != "" {
				affordable, err := parseInt(cells[4])
				if err != nil {
					return nil, fmt.Errorf("project %q: %w", name, err)
				}
				project.AffordableUnits = &affordable
			}

			projects = append(projects, project)
		}
	}

	if len(projects) == 0 {
		return nil, fmt.Errorf("no project rows found")
	}
	return projects, nil
}
