package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/domain"
	e "github.com/hvidsten/skylight/internal/errors"
)

var amiBands = map[string]bool{
	"30%":  true,
	"50%":  true,
	"80%":  true,
	"120%": true,
}

type EligibilityQuery struct {
	AnnualIncome float64
	FamilySize   int
	// AMIBand is "30%", "50%", "80%" or "120%". Empty means 80%.
	AMIBand string
	// Year selects the limit table. Zero means the current year.
	Year         int
	ForceRefresh bool
}

// EligibilityResult is an answer, not an error: a household that is over
// the limit, or a band the county does not publish, still gets a result
// with Eligible false and the reason spelled out.
type EligibilityResult struct {
	Eligible     bool
	Reason       string
	AnnualIncome float64
	FamilySize   int
	AMIBand      string
	Year         int

	IncomeLimit       *float64
	PercentOfLimit    *float64
	MaxAffordableRent *float64

	Origin acquire.Origin
}

type CheckEligibility func(ctx context.Context, query EligibilityQuery) (EligibilityResult, error)

func BuildCheckEligibility(
	service Acquirer,
	fetchArchive archive.FetchArchive,
	nowFunc func() time.Time,
) CheckEligibility {
	return func(ctx context.Context, query EligibilityQuery) (EligibilityResult, error) {
		if query.AnnualIncome < 0 {
			return EligibilityResult{}, fmt.Errorf("%w: annual income must not be negative, got %.2f", e.ErrAcquisition, query.AnnualIncome)
		}
		if query.FamilySize < 1 || query.FamilySize > 8 {
			return EligibilityResult{}, fmt.Errorf("%w: family size must be between 1 and 8, got %d", e.ErrAcquisition, query.FamilySize)
		}

		band := query.AMIBand
		if band == "" {
			band = "80%"
		}
		if !amiBands[band] {
			return EligibilityResult{}, fmt.Errorf("%w: unknown AMI band %q", e.ErrAcquisition, query.AMIBand)
		}

		year := query.Year
		if year == 0 {
			year = nowFunc().Year()
		}

		// Fetch the whole year's table and pick the row here, so a family
		// size the county does not publish is an answer rather than a
		// failed acquisition.
		spec := sources.FetchSpec{
			Source: sources.SourceForKind(domain.KindIncomeLimits),
			Kind:   domain.KindIncomeLimits,
			Params: map[string]string{"year": strconv.Itoa(year)},
		}

		result, err := acquireAndArchive(ctx, service, fetchArchive, nowFunc, spec, acquire.Options{
			ForceRefresh: query.ForceRefresh,
		})
		if err != nil {
			return EligibilityResult{}, err
		}

		answer := EligibilityResult{
			AnnualIncome: query.AnnualIncome,
			FamilySize:   query.FamilySize,
			AMIBand:      band,
			Year:         year,
			Origin:       result.Origin,
		}

		var row *domain.IncomeLimits
		for i := range result.Record.IncomeLimits {
			candidate := &result.Record.IncomeLimits[i]
			if candidate.Year == year && candidate.FamilySize == query.FamilySize {
				row = candidate
				break
			}
		}
		if row == nil {
			answer.Reason = fmt.Sprintf("no income limits published for a %d person household in %d", query.FamilySize, year)
			return answer, nil
		}

		limit := bandLimit(row, band)
		if limit == nil {
			answer.Reason = fmt.Sprintf("no income limit published for the %s AMI band in %d", band, year)
			return answer, nil
		}

		answer.IncomeLimit = limit
		if *limit > 0 {
			percent := query.AnnualIncome / *limit * 100
			answer.PercentOfLimit = &percent
		}

		if query.AnnualIncome > *limit {
			answer.Reason = fmt.Sprintf("income $%.2f exceeds the %s AMI limit of $%.2f", query.AnnualIncome, band, *limit)
			return answer, nil
		}

		answer.Eligible = true
		answer.Reason = fmt.Sprintf("income $%.2f is within the %s AMI limit of $%.2f", query.AnnualIncome, band, *limit)
		answer.MaxAffordableRent = bandMaxRent(row, band)
		return answer, nil
	}
}

func bandLimit(row *domain.IncomeLimits, band string) *float64 {
	switch strings.TrimSuffix(band, "%") {
	case "30":
		return row.AMI30
	case "50":
		return row.AMI50
	case "80":
		return row.AMI80
	case "120":
		return row.AMI120
	}
	return nil
}

// The county publishes maximum rents for the 30/50/80% bands only.
func bandMaxRent(row *domain.IncomeLimits, band string) *float64 {
	switch strings.TrimSuffix(band, "%") {
	case "30":
		return row.MaxRent30
	case "50":
		return row.MaxRent50
	case "80":
		return row.MaxRent80
	}
	return nil
}
