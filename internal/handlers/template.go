package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/report-portal/internal/dto"
	apierrors "github.com/reportdesk/report-portal/internal/errors"
	"github.com/reportdesk/report-portal/internal/schema"
	"github.com/reportdesk/report-portal/internal/services"
	"github.com/reportdesk/report-portal/internal/spreadsheet"
	"github.com/reportdesk/report-portal/internal/utils"
)

// TemplateHandler serves report templates and their schema editing.
type TemplateHandler struct {
	templateService *services.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
	}
}

// ListTemplates returns a page of templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	departmentID, err := optionalUint64Query(c, "department_id")
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	params := utils.GetPaginationParams(c)
	templates, total, err := h.templateService.ListTemplates(actor, services.ListTemplatesInput{
		DepartmentID: departmentID,
		Search:       c.Query("search"),
		Page:         params.Page,
		PageSize:     params.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTemplateListResponse(templates, params.Page, params.Limit, total))
}

// CreateTemplate creates a template with a single sheet holding its fields
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	type CreateTemplateRequest struct {
		Name         string         `json:"name" binding:"required"`
		Description  string         `json:"description"`
		DepartmentID *uint64        `json:"department_id"`
		Fields       []schema.Field `json:"fields"`
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	template, err := h.templateService.CreateTemplate(actor, services.CreateTemplateInput{
		Name:         req.Name,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
		Fields:       req.Fields,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	_, sch, err := h.templateService.GetTemplate(template.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTemplateDTO(*template, sch))
}

// GetTemplate returns a template with its schema
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	template, sch, err := h.templateService.GetTemplate(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTemplateDTO(*template, sch))
}

// UpdateTemplate changes template metadata
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	type UpdateTemplateRequest struct {
		Name         *string `json:"name"`
		Description  *string `json:"description"`
		DepartmentID *uint64 `json:"department_id"`
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	template, err := h.templateService.UpdateTemplate(actor, id, services.UpdateTemplateInput{
		Name:         req.Name,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTemplateDTO(*template, nil))
}

// DeleteTemplate deletes a template and its assignments
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.templateService.DeleteTemplate(actor, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Template deleted successfully",
	})
}

// ReplaceSchema stores a complete schema
func (h *TemplateHandler) ReplaceSchema(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req dto.SchemaDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	template, sch, err := h.templateService.ReplaceSchema(actor, id, req.ToSchema())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTemplateDTO(*template, sch))
}

// AddField adds a field to the first sheet
func (h *TemplateHandler) AddField(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	type AddFieldRequest struct {
		ID    string           `json:"id"`
		Label string           `json:"label" binding:"required"`
		Type  schema.FieldType `json:"type"`
	}

	var req AddFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	field, sch, err := h.templateService.AddField(actor, id, schema.Field{ID: req.ID, Label: req.Label, Type: req.Type})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"field":  field,
		"schema": dto.ToSchemaDTO(sch),
	})
}

// RemoveField removes a field from the template and all of its sheets
func (h *TemplateHandler) RemoveField(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	sch, err := h.templateService.RemoveField(actor, id, c.Param("field_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schema": dto.ToSchemaDTO(sch)})
}

// UpdateField relabels or retypes a field
func (h *TemplateHandler) UpdateField(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	type UpdateFieldRequest struct {
		Label *string           `json:"label"`
		Type  *schema.FieldType `json:"type"`
	}

	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	sch, err := h.templateService.UpdateField(actor, id, c.Param("field_id"), req.Label, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schema": dto.ToSchemaDTO(sch)})
}

// AddSheet appends an empty sheet
func (h *TemplateHandler) AddSheet(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	type AddSheetRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req AddSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	sch, err := h.templateService.AddSheet(actor, id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"schema": dto.ToSchemaDTO(sch)})
}

// AssignFieldsToSheet moves the listed fields onto a sheet, in order
func (h *TemplateHandler) AssignFieldsToSheet(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	type AssignFieldsRequest struct {
		FieldIDs []string `json:"field_ids" binding:"required"`
	}

	var req AssignFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	sch, err := h.templateService.AssignFieldsToSheet(actor, id, c.Param("name"), req.FieldIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schema": dto.ToSchemaDTO(sch)})
}

// RenameSheet renames a sheet
func (h *TemplateHandler) RenameSheet(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	type RenameSheetRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req RenameSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	sch, err := h.templateService.RenameSheet(actor, id, c.Param("name"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schema": dto.ToSchemaDTO(sch)})
}

// RemoveSheet removes a sheet; its fields stay in the catalogue
func (h *TemplateHandler) RemoveSheet(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	sch, err := h.templateService.RemoveSheet(actor, id, c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schema": dto.ToSchemaDTO(sch)})
}

// DownloadBlank returns the empty input workbook of a template
func (h *TemplateHandler) DownloadBlank(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	body, filename, err := h.templateService.Blank(id)
	if err != nil {
		respondError(c, err)
		return
	}

	attachment(c, filename, spreadsheet.ContentType, body)
}

// SuggestFields proposes fields for a free-text description
func (h *TemplateHandler) SuggestFields(c *gin.Context) {
	type SuggestFieldsRequest struct {
		Description string `json:"description" binding:"required"`
	}

	var req SuggestFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	fields, err := h.templateService.SuggestFields(c.Request.Context(), req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FieldSuggestionsResponse{Fields: fields})
}
