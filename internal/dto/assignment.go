package dto

import (
	"encoding/json"
	"time"

	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/services"
	"github.com/reportdesk/report-portal/internal/spreadsheet"
)

// AssignmentDTO represents an assigned report. Status is the effective status.
type AssignmentDTO struct {
	ID                  uint64              `json:"id"`
	TemplateID          uint64              `json:"template_id"`
	OrganizationID      uint64              `json:"organization_id"`
	DueDate             string              `json:"due_date"`
	Status              models.ReportStatus `json:"status"`
	CurrentSubmissionID *uint64             `json:"current_submission_id"`
	AssignedBy          *uint64             `json:"assigned_by"`
	Template            *TemplateRefDTO     `json:"template,omitempty"`
	Organization        *OrganizationRefDTO `json:"organization,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// AssignmentListResponse represents a paginated list of assignments
type AssignmentListResponse struct {
	Assignments []AssignmentDTO `json:"assignments"`
	Pagination
}

// SubmissionDTO represents a stored submission
type SubmissionDTO struct {
	ID           uint64          `json:"id"`
	AssignmentID uint64          `json:"assignment_id"`
	Data         json.RawMessage `json:"data"`
	SubmittedBy  *uint64         `json:"submitted_by"`
	SubmittedAt  time.Time       `json:"submitted_at"`
	Assignment   *AssignmentDTO  `json:"assignment,omitempty"`
}

// AssignmentDetailDTO is an assignment with its submission history, newest first
type AssignmentDetailDTO struct {
	AssignmentDTO
	Submissions []SubmissionDTO `json:"submissions"`
}

// SubmitResponse is returned after a submission has been accepted
type SubmitResponse struct {
	Submission SubmissionDTO         `json:"submission"`
	Warnings   []spreadsheet.Warning `json:"warnings,omitempty"`
}

// BatchExportResponse lists the outcome of a batch publish per assignment
type BatchExportResponse struct {
	Results   []services.BatchResult `json:"results"`
	Published int                    `json:"published"`
	Failed    int                    `json:"failed"`
}

// ToAssignmentDTO converts an AssignedReport model to AssignmentDTO
func ToAssignmentDTO(a models.AssignedReport) AssignmentDTO {
	return AssignmentDTO{
		ID:                  a.ID,
		TemplateID:          a.TemplateID,
		OrganizationID:      a.OrganizationID,
		DueDate:             a.DueDate.Format(time.DateOnly),
		Status:              a.Status,
		CurrentSubmissionID: a.CurrentSubmissionID,
		AssignedBy:          a.AssignedBy,
		Template:            ToTemplateRefDTO(&a.Template),
		Organization:        ToOrganizationRefDTO(&a.Organization),
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

// ToAssignmentDTOs converts a slice of assignments
func ToAssignmentDTOs(assignments []models.AssignedReport) []AssignmentDTO {
	items := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		items[i] = ToAssignmentDTO(a)
	}
	return items
}

// ToAssignmentListResponse converts a page of assignments to AssignmentListResponse
func ToAssignmentListResponse(assignments []models.AssignedReport, page, pageSize int, totalCount int64) AssignmentListResponse {
	return AssignmentListResponse{
		Assignments: ToAssignmentDTOs(assignments),
		Pagination:  NewPagination(page, pageSize, totalCount),
	}
}

// ToSubmissionDTO converts a ReportSubmission model to SubmissionDTO
func ToSubmissionDTO(s models.ReportSubmission) SubmissionDTO {
	dto := SubmissionDTO{
		ID:           s.ID,
		AssignmentID: s.AssignedReportID,
		Data:         json.RawMessage(s.Data),
		SubmittedBy:  s.SubmittedBy,
		SubmittedAt:  s.SubmittedAt,
	}
	if s.AssignedReport != nil && s.AssignedReport.ID != 0 {
		assignment := ToAssignmentDTO(*s.AssignedReport)
		dto.Assignment = &assignment
	}
	return dto
}

// ToSubmissionDTOs converts a slice of submissions
func ToSubmissionDTOs(submissions []models.ReportSubmission) []SubmissionDTO {
	items := make([]SubmissionDTO, len(submissions))
	for i, s := range submissions {
		items[i] = ToSubmissionDTO(s)
	}
	return items
}

// ToBatchExportResponse counts the outcomes of a batch publish
func ToBatchExportResponse(results []services.BatchResult) BatchExportResponse {
	resp := BatchExportResponse{Results: results}
	for _, r := range results {
		if r.Error != "" {
			resp.Failed++
		} else {
			resp.Published++
		}
	}
	return resp
}
