package ports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hvidsten/skylight/internal/app"
)

type eligibilityResponse struct {
	Eligible     bool    `json:"eligible"`
	Reason       string  `json:"reason"`
	AnnualIncome float64 `json:"annualIncome"`
	FamilySize   int     `json:"familySize"`
	AMIBand      string  `json:"amiBand"`
	Year         int     `json:"year"`

	IncomeLimit       *float64 `json:"incomeLimit,omitempty"`
	PercentOfLimit    *float64 `json:"percentOfLimit,omitempty"`
	MaxAffordableRent *float64 `json:"maxAffordableRent,omitempty"`
}

func eligibilityToResponse(result app.EligibilityResult) eligibilityResponse {
	return eligibilityResponse{
		Eligible:          result.Eligible,
		Reason:            result.Reason,
		AnnualIncome:      result.AnnualIncome,
		FamilySize:        result.FamilySize,
		AMIBand:           result.AMIBand,
		Year:              result.Year,
		IncomeLimit:       result.IncomeLimit,
		PercentOfLimit:    result.PercentOfLimit,
		MaxAffordableRent: result.MaxAffordableRent,
	}
}

func MakeCheckEligibilityHandler(
	checkEligibility app.CheckEligibility,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("eligibility", rootLogger, sentryMiddleware, allowedOrigins)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		forceRefresh, ok := parseForceRefresh(r)
		if !ok {
			writeBadRequest(ctx, w, "invalid refresh parameter")
			return
		}

		income, err := strconv.ParseFloat(r.URL.Query().Get("annual_income"), 64)
		if err != nil || income < 0 {
			writeBadRequest(ctx, w, "invalid annual_income parameter")
			return
		}

		familySize, err := strconv.Atoi(r.URL.Query().Get("family_size"))
		if err != nil || familySize < 1 || familySize > 8 {
			writeBadRequest(ctx, w, "invalid family_size parameter")
			return
		}

		query := app.EligibilityQuery{
			AnnualIncome: income,
			FamilySize:   familySize,
			AMIBand:      r.URL.Query().Get("ami_band"),
			ForceRefresh: forceRefresh,
		}

		if raw := r.URL.Query().Get("year"); raw != "" {
			year, err := strconv.Atoi(raw)
			if err != nil || year < 2000 || year > 2099 {
				writeBadRequest(ctx, w, "invalid year parameter")
				return
			}
			query.Year = year
		}

		result, err := checkEligibility(ctx, query)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, envelope{
			Success: true,
			Origin:  string(result.Origin),
			Data:    eligibilityToResponse(result),
		})
	}

	return middleware(handler)
}
