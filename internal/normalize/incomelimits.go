package normalize

import (
	"fmt"
	"strconv"

	"github.com/hvidsten/skylight/internal/domain"
)

// The income and rent limit page carries one table per year, tagged with a
// data-year attribute. Columns: family size, income ceilings at 30/50/80/120%
// AMI, then maximum rents at 30/50/80% AMI.
const incomeLimitColumns = 8

func normalizeIncomeLimits(payload []byte, params map[string]string) ([]domain.IncomeLimits, error) {
	wantYear := 0
	if raw, ok := params["year"]; ok && raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid year filter %q", raw)
		}
		wantYear = parsed
	}

	wantFamilySize := 0
	if raw, ok := params["family_size"]; ok && raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 8 {
			return nil, fmt.Errorf("invalid family size filter %q", raw)
		}
		wantFamilySize = parsed
	}

	var limits []domain.IncomeLimits
	sawYearTable := false
	for _, table := range extractTables(payload) {
		rawYear, ok := attrValue(table.attrs, "data-year")
		if !ok {
			continue
		}
		year, err := strconv.Atoi(rawYear)
		if err != nil || year < 2000 || year > 2100 {
			return nil, fmt.Errorf("invalid table year %q", rawYear)
		}
		if wantYear != 0 && year != wantYear {
			continue
		}
		sawYearTable = true

		for _, cells := range table.rows {
			row, err := incomeLimitRow(year, cells)
			if err != nil {
				return nil, err
			}
			if row == nil {
				// Header row
				continue
			}
			if wantFamilySize != 0 && row.FamilySize != wantFamilySize {
				continue
			}
			limits = append(limits, *row)
		}
	}

	if !sawYearTable {
		return nil, fmt.Errorf("no income limit tables found")
	}
	if len(limits) == 0 {
		return nil, fmt.Errorf("no rows matched (year=%d, family_size=%d)", wantYear, wantFamilySize)
	}
	return limits, nil
}

func incomeLimitRow(year int, cells []string) (*domain.IncomeLimits, error) {
	if len(cells) != incomeLimitColumns {
		return nil, fmt.Errorf("year %d: expected %d columns, got %d", year, incomeLimitColumns, len(cells))
	}

	familySize, err := parseInt(cells[0])
	if err != nil {
		// First row repeats the column names
		return nil, nil
	}
	if familySize < 1 || familySize > 8 {
		return nil, fmt.Errorf("year %d: family size %d out of range", year, familySize)
	}

	row := domain.IncomeLimits{Year: year, FamilySize: familySize}
	dollarFields := []**float64{
		&row.AMI30, &row.AMI50, &row.AMI80, &row.AMI120,
		&row.MaxRent30, &row.MaxRent50, &row.MaxRent80,
	}
	for i, field := range dollarFields {
		value, err := parseDollars(cells[i+1])
		if err != nil {
			return nil, fmt.Errorf("year %d family size %d: %w", year, familySize, err)
		}
		*field = value
	}

	if row.AMI30 == nil && row.AMI50 == nil && row.AMI80 == nil && row.AMI120 == nil {
		return nil, fmt.Errorf("year %d family size %d: no income bands published", year, familySize)
	}
	return &row, nil
}
