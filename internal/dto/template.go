package dto

import (
	"time"

	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/schema"
)

// SchemaDTO represents a template schema in API responses and requests
type SchemaDTO struct {
	Fields []schema.Field     `json:"fields"`
	Sheets []schema.SheetSpec `json:"sheets"`
	Layout schema.Layout      `json:"layout"`
}

// TemplateDTO represents a template with its schema
type TemplateDTO struct {
	ID           uint64              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	DepartmentID *uint64             `json:"department_id"`
	Department   *OrganizationRefDTO `json:"department,omitempty"`
	CreatedBy    *uint64             `json:"created_by"`
	Schema       *SchemaDTO          `json:"schema,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TemplateRefDTO is the short form of a template embedded in other resources
type TemplateRefDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// TemplateListResponse represents a paginated list of templates
type TemplateListResponse struct {
	Templates []TemplateDTO `json:"templates"`
	Pagination
}

// FieldSuggestionsResponse represents fields proposed for a description
type FieldSuggestionsResponse struct {
	Fields []schema.Field `json:"fields"`
}

// ToSchemaDTO converts a schema, dropping bookkeeping that clients never edit
func ToSchemaDTO(s *schema.TemplateSchema) *SchemaDTO {
	if s == nil {
		return nil
	}
	return &SchemaDTO{
		Fields: s.Fields,
		Sheets: s.Sheets,
		Layout: s.Layout,
	}
}

// ToSchema converts a request body into a schema value
func (d SchemaDTO) ToSchema() *schema.TemplateSchema {
	return &schema.TemplateSchema{
		Fields: d.Fields,
		Sheets: d.Sheets,
		Layout: d.Layout,
	}
}

// ToTemplateDTO converts a template; s may be nil for list views
func ToTemplateDTO(t models.ReportTemplate, s *schema.TemplateSchema) TemplateDTO {
	return TemplateDTO{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		DepartmentID: t.DepartmentID,
		Department:   ToOrganizationRefDTO(t.Department),
		CreatedBy:    t.CreatedBy,
		Schema:       ToSchemaDTO(s),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// ToTemplateRefDTO returns nil unless the template was preloaded
func ToTemplateRefDTO(t *models.ReportTemplate) *TemplateRefDTO {
	if t == nil || t.ID == 0 {
		return nil
	}
	return &TemplateRefDTO{ID: t.ID, Name: t.Name}
}

// ToTemplateListResponse converts a page of templates to TemplateListResponse
func ToTemplateListResponse(templates []models.ReportTemplate, page, pageSize int, totalCount int64) TemplateListResponse {
	items := make([]TemplateDTO, len(templates))
	for i, t := range templates {
		items[i] = ToTemplateDTO(t, nil)
	}
	return TemplateListResponse{
		Templates:  items,
		Pagination: NewPagination(page, pageSize, totalCount),
	}
}
