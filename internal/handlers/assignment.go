package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/report-portal/internal/constants"
	"github.com/reportdesk/report-portal/internal/dto"
	apierrors "github.com/reportdesk/report-portal/internal/errors"
	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/schema"
	"github.com/reportdesk/report-portal/internal/services"
	"github.com/reportdesk/report-portal/internal/spreadsheet"
	"github.com/reportdesk/report-portal/internal/utils"
)

const uploadFormField = "file"

// AssignmentHandler serves assignments, submissions and their exports.
type AssignmentHandler struct {
	assignmentService *services.AssignmentService
	exportService     *services.ExportService
	maxUploadBytes    int64
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService *services.AssignmentService, exportService *services.ExportService) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		exportService:     exportService,
		maxUploadBytes:    constants.MaxUploadBytes,
	}
}

// ListAssignments returns a page of the assignments visible to the caller
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	input := services.ListAssignmentsInput{}
	var err error
	if input.TemplateID, err = optionalUint64Query(c, "template_id"); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	if input.OrganizationID, err = optionalUint64Query(c, "organization_id"); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	if input.DueDateFrom, err = optionalDateQuery(c, "due_from"); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	dueTo, err := optionalDateQuery(c, "due_to")
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	if dueTo != nil {
		// due_to is inclusive
		next := dueTo.AddDate(0, 0, 1)
		input.DueDateTo = &next
	}
	if input.Status, ok = statusQuery(c); !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	assignments, total, err := h.assignmentService.ListAssignments(actor, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAssignmentListResponse(assignments, params.Page, params.Limit, total))
}

// CreateAssignments assigns a template to one or more organizations
func (h *AssignmentHandler) CreateAssignments(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	type CreateAssignmentsRequest struct {
		TemplateID      uint64   `json:"template_id" binding:"required"`
		OrganizationIDs []uint64 `json:"organization_ids" binding:"required"`
		DueDate         string   `json:"due_date" binding:"required"`
	}

	var req CreateAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	dueDate, err := time.Parse(time.DateOnly, req.DueDate)
	if err != nil {
		apierrors.BadRequest(c, "due_date must be formatted as YYYY-MM-DD")
		return
	}

	assignments, err := h.assignmentService.AssignTemplate(actor, services.AssignTemplateInput{
		TemplateID:      req.TemplateID,
		OrganizationIDs: req.OrganizationIDs,
		DueDate:         dueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"assignments": dto.ToAssignmentDTOs(assignments),
	})
}

// GetAssignment returns an assignment and its submission history
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	assignment, err := h.assignmentService.GetAssignment(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	submissions, err := h.assignmentService.ListSubmissions(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AssignmentDetailDTO{
		AssignmentDTO: dto.ToAssignmentDTO(*assignment),
		Submissions:   dto.ToSubmissionDTOs(submissions),
	})
}

// DeleteAssignment deletes an assignment
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.assignmentService.DeleteAssignment(actor, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Assignment deleted successfully",
	})
}

// Submit accepts a JSON payload for an assignment
func (h *AssignmentHandler) Submit(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	type SubmitRequest struct {
		Data *schema.Payload `json:"data" binding:"required"`
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	submission, err := h.assignmentService.Submit(actor, services.SubmitInput{
		AssignmentID: id,
		Payload:      *req.Data,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SubmitResponse{
		Submission: dto.ToSubmissionDTO(*submission),
	})
}

// Upload accepts a filled-in workbook for an assignment
func (h *AssignmentHandler) Upload(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	header, err := c.FormFile(uploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.FileTooLarge(c, h.maxUploadBytes)
			return
		}
		apierrors.MissingField(c, uploadFormField)
		return
	}
	if header.Size > h.maxUploadBytes {
		apierrors.FileTooLarge(c, h.maxUploadBytes)
		return
	}
	file, err := header.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	submission, warnings, err := h.assignmentService.SubmitUpload(actor, id, file)
	if err != nil {
		status, apiErr, ok := apierrors.FromDomainError(err)
		if !ok {
			respondError(c, err)
			return
		}
		if details, isDetails := apiErr.Details.(*apierrors.ErrorDetails); isDetails {
			details.Warnings = warningStrings(warnings)
		} else if len(warnings) > 0 {
			apiErr.Details = &apierrors.ErrorDetails{Warnings: warningStrings(warnings)}
		}
		apierrors.RespondWithError(c, status, apiErr)
		return
	}

	c.JSON(http.StatusCreated, dto.SubmitResponse{
		Submission: dto.ToSubmissionDTO(*submission),
		Warnings:   warnings,
	})
}

// Export downloads the canonical submission as a workbook
func (h *AssignmentHandler) Export(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	report, err := h.exportService.Render(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	attachment(c, report.Filename, spreadsheet.ContentType, report.Body)
}

// Publish stores the canonical submission in the document library
func (h *AssignmentHandler) Publish(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	location, err := h.exportService.Publish(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, location)
}

// PublishBatch publishes several assignments and reports each outcome
func (h *AssignmentHandler) PublishBatch(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	type PublishBatchRequest struct {
		AssignmentIDs []uint64 `json:"assignment_ids" binding:"required"`
	}

	var req PublishBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	results, err := h.exportService.PublishBatch(c.Request.Context(), actor, req.AssignmentIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBatchExportResponse(results))
}

// RefreshOverdue persists the overdue status of late assignments
func (h *AssignmentHandler) RefreshOverdue(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	updated, err := h.assignmentService.RefreshOverdue(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// statusQuery parses the optional status filter or writes a 400 response.
func statusQuery(c *gin.Context) (*models.ReportStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}
	status := models.ReportStatus(raw)
	if !status.Valid() {
		apierrors.BadRequest(c, "status must be pending, completed or overdue")
		return nil, false
	}
	return &status, true
}

func warningStrings(warnings []spreadsheet.Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.String()
	}
	return out
}
