package dto

import (
	"time"

	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/repository"
	"github.com/reportdesk/report-portal/internal/services"
	"github.com/reportdesk/report-portal/internal/spreadsheet"
)

// DashboardDTO is the role-specific dashboard projection
type DashboardDTO struct {
	Role              models.UserRole                      `json:"role"`
	Totals            *services.Totals                     `json:"totals,omitempty"`
	StatusCounts      map[models.ReportStatus]int64        `json:"status_counts"`
	ByOrganization    []repository.OrganizationStatusCount `json:"by_organization,omitempty"`
	RecentActivity    []AssignmentDTO                      `json:"recent_activity,omitempty"`
	RecentSubmissions []SubmissionDTO                      `json:"recent_submissions,omitempty"`
	Upcoming          []AssignmentDTO                      `json:"upcoming,omitempty"`
	ActionNeeded      []AssignmentDTO                      `json:"action_needed,omitempty"`
}

// StatusReportRowDTO is one line of the status report
type StatusReportRowDTO struct {
	ID           uint64 `json:"id"`
	ReportName   string `json:"report_name"`
	Organization string `json:"organization"`
	DueDate      string `json:"due_date"`
	Status       string `json:"status"`
}

// StatusReportResponse represents the status report in JSON form
type StatusReportResponse struct {
	Rows  []StatusReportRowDTO `json:"rows"`
	Total int                  `json:"total"`
}

// ToDashboardDTO converts a dashboard projection
func ToDashboardDTO(d services.Dashboard) DashboardDTO {
	dto := DashboardDTO{
		Role:           d.Role,
		Totals:         d.Totals,
		StatusCounts:   d.StatusCounts,
		ByOrganization: d.ByOrganization,
	}
	if d.RecentActivity != nil {
		dto.RecentActivity = ToAssignmentDTOs(d.RecentActivity)
	}
	if d.RecentSubmissions != nil {
		dto.RecentSubmissions = ToSubmissionDTOs(d.RecentSubmissions)
	}
	if d.Upcoming != nil {
		dto.Upcoming = ToAssignmentDTOs(d.Upcoming)
	}
	if d.ActionNeeded != nil {
		dto.ActionNeeded = ToAssignmentDTOs(d.ActionNeeded)
	}
	return dto
}

// ToStatusReportResponse converts status rows to StatusReportResponse
func ToStatusReportResponse(rows []spreadsheet.StatusRow) StatusReportResponse {
	items := make([]StatusReportRowDTO, len(rows))
	for i, r := range rows {
		items[i] = StatusReportRowDTO{
			ID:           r.ID,
			ReportName:   r.ReportName,
			Organization: r.Organization,
			DueDate:      r.DueDate.Format(time.DateOnly),
			Status:       r.Status,
		}
	}
	return StatusReportResponse{Rows: items, Total: len(items)}
}
