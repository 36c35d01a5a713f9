package normalize

import (
	"fmt"
	"time"

	"github.com/hvidsten/skylight/internal/domain"
)

func normalizeStatistics(payload []byte, retrievedAt time.Time) (*domain.HousingStatistics, error) {
	rawUnits, ok := testidValue(payload, "total-affordable-units")
	if !ok {
		return nil, fmt.Errorf("missing total affordable units")
	}
	totalUnits, err := parseInt(rawUnits)
	if err != nil {
		return nil, err
	}

	rawProjects, ok := testidValue(payload, "total-projects")
	if !ok {
		return nil, fmt.Errorf("missing total projects")
	}
	totalProjects, err := parseInt(rawProjects)
	if err != nil {
		return nil, err
	}

	if totalUnits < 0 || totalProjects < 0 {
		return nil, fmt.Errorf("negative totals (units=%d, projects=%d)", totalUnits, totalProjects)
	}

	rawCounty, ok := testidValue(payload, "county-funding")
	if !ok {
		return nil, fmt.Errorf("missing county funding")
	}
	countyFunding, err := parseMillions(rawCounty)
	if err != nil {
		return nil, err
	}

	rawFederal, ok := testidValue(payload, "federal-funding")
	if !ok {
		return nil, fmt.Errorf("missing federal funding")
	}
	federalFunding, err := parseMillions(rawFederal)
	if err != nil {
		return nil, err
	}

	unitsByStatus, err := chartSeries(payload, "units-status-chart")
	if err != nil {
		return nil, err
	}
	unitsByCity, err := chartSeries(payload, "units-by-city-chart")
	if err != nil {
		return nil, err
	}

	lastUpdated := retrievedAt
	if raw, ok := testidValue(payload, "last-updated"); ok {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			lastUpdated = parsed
		}
	}

	return &domain.HousingStatistics{
		TotalAffordableUnits: totalUnits,
		TotalProjects:        totalProjects,
		CountyFunding:        countyFunding,
		FederalFunding:       federalFunding,
		UnitsByStatus:        unitsByStatus,
		UnitsByCity:          unitsByCity,
		LastUpdated:          lastUpdated,
	}, nil
}
