package ports

import (
	"time"

	"github.com/hvidsten/skylight/internal/domain"
)

type statisticsResponse struct {
	TotalAffordableUnits int            `json:"totalAffordableUnits"`
	TotalProjects        int            `json:"totalProjects"`
	CountyFundingM       float64        `json:"countyFundingMillions"`
	FederalFundingM      float64        `json:"federalFundingMillions"`
	UnitsByStatus        map[string]int `json:"unitsByStatus,omitempty"`
	UnitsByCity          map[string]int `json:"unitsByCity,omitempty"`
	LastUpdated          time.Time      `json:"lastUpdated"`
}

func statisticsToResponse(statistics *domain.HousingStatistics) statisticsResponse {
	return statisticsResponse{
		TotalAffordableUnits: statistics.TotalAffordableUnits,
		TotalProjects:        statistics.TotalProjects,
		CountyFundingM:       statistics.CountyFunding,
		FederalFundingM:      statistics.FederalFunding,
		UnitsByStatus:        statistics.UnitsByStatus,
		UnitsByCity:          statistics.UnitsByCity,
		LastUpdated:          statistics.LastUpdated,
	}
}

type incomeLimitsResponse struct {
	Year       int `json:"year"`
	FamilySize int `json:"familySize"`

	AMI30  *float64 `json:"ami30,omitempty"`
	AMI50  *float64 `json:"ami50,omitempty"`
	AMI80  *float64 `json:"ami80,omitempty"`
	AMI120 *float64 `json:"ami120,omitempty"`

	MaxRent30 *float64 `json:"maxRent30,omitempty"`
	MaxRent50 *float64 `json:"maxRent50,omitempty"`
	MaxRent80 *float64 `json:"maxRent80,omitempty"`
}

func incomeLimitsToResponse(limits []domain.IncomeLimits) []incomeLimitsResponse {
	response := make([]incomeLimitsResponse, 0, len(limits))
	for _, row := range limits {
		response = append(response, incomeLimitsResponse{
			Year:       row.Year,
			FamilySize: row.FamilySize,
			AMI30:      row.AMI30,
			AMI50:      row.AMI50,
			AMI80:      row.AMI80,
			AMI120:     row.AMI120,
			MaxRent30:  row.MaxRent30,
			MaxRent50:  row.MaxRent50,
			MaxRent80:  row.MaxRent80,
		})
	}
	return response
}

type noticeResponse struct {
	Title         string     `json:"title"`
	DatePublished *time.Time `json:"datePublished,omitempty"`
	NoticeType    string     `json:"noticeType"`
	ContentURL    string     `json:"contentUrl"`
	Summary       string     `json:"summary,omitempty"`
	Documents     []string   `json:"documents,omitempty"`
}

func noticesToResponse(notices []domain.PublicNotice) []noticeResponse {
	response := make([]noticeResponse, 0, len(notices))
	for _, notice := range notices {
		response = append(response, noticeResponse{
			Title:         notice.Title,
			DatePublished: notice.DatePublished,
			NoticeType:    notice.NoticeType,
			ContentURL:    notice.ContentURL,
			Summary:       notice.Summary,
			Documents:     notice.Documents,
		})
	}
	return response
}

type programResponse struct {
	Name                    string   `json:"name"`
	Description             string   `json:"description,omitempty"`
	EligibilityRequirements []string `json:"eligibilityRequirements,omitempty"`
	ApplicationProcess      string   `json:"applicationProcess,omitempty"`
	ContactInfo             string   `json:"contactInfo,omitempty"`
	ProgramURL              string   `json:"programUrl"`
}

func programsToResponse(programs []domain.HousingProgram) []programResponse {
	response := make([]programResponse, 0, len(programs))
	for _, program := range programs {
		response = append(response, programResponse{
			Name:                    program.Name,
			Description:             program.Description,
			EligibilityRequirements: program.EligibilityRequirements,
			ApplicationProcess:      program.ApplicationProcess,
			ContactInfo:             program.ContactInfo,
			ProgramURL:              program.ProgramURL,
		})
	}
	return response
}

type projectResponse struct {
	ProjectName     string `json:"projectName"`
	Location        string `json:"location,omitempty"`
	Status          string `json:"status"`
	TotalUnits      *int   `json:"totalUnits,omitempty"`
	AffordableUnits *int   `json:"affordableUnits,omitempty"`
}

func projectsToResponse(projects []domain.ProjectDetails) []projectResponse {
	response := make([]projectResponse, 0, len(projects))
	for _, project := range projects {
		response = append(response, projectResponse{
			ProjectName:     project.ProjectName,
			Location:        project.Location,
			Status:          project.Status,
			TotalUnits:      project.TotalUnits,
			AffordableUnits: project.AffordableUnits,
		})
	}
	return response
}
