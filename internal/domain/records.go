package domain

import (
	"time"
)

// Record is the validated, canonical representation of one data kind.
// Exactly one of the payload fields is set, matching Kind. Records are
// read-only once returned to a caller.
type Record struct {
	Kind          Kind
	SchemaVersion int
	RetrievedAt   time.Time

	Statistics   *HousingStatistics
	IncomeLimits []IncomeLimits
	Notices      []PublicNotice
	Programs     []HousingProgram
	Projects     []ProjectDetails
}

// HousingStatistics is a snapshot of the county housing dashboard.
type HousingStatistics struct {
	TotalAffordableUnits int
	TotalProjects        int

	// Funding totals in millions of dollars.
	CountyFunding  float64
	FederalFunding float64

	UnitsByStatus map[string]int
	UnitsByCity   map[string]int

	LastUpdated time.Time
}

// IncomeLimits is one year/family-size row from the income and rent limit
// tables. AMI fields are income ceilings per AMI band; rent fields are the
// corresponding maximum rents. Bands missing from the source table are nil.
type IncomeLimits struct {
	Year       int
	FamilySize int

	AMI30  *float64
	AMI50  *float64
	AMI80  *float64
	AMI120 *float64

	MaxRent30 *float64
	MaxRent50 *float64
	MaxRent80 *float64
}

type PublicNotice struct {
	Title         string
	DatePublished *time.Time
	NoticeType    string
	ContentURL    string
	Summary       string
	Documents     []string
}

type HousingProgram struct {
	Name                    string
	Description             string
	EligibilityRequirements []string
	ApplicationProcess      string
	ContactInfo             string
	ProgramURL              string
}

type ProjectDetails struct {
	ProjectName     string
	Location        string
	Status          string
	TotalUnits      *int
	AffordableUnits *int
}
