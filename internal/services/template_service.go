package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reportdesk/report-portal/internal/constants"
	"github.com/reportdesk/report-portal/internal/distribution"
	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/repository"
	"github.com/reportdesk/report-portal/internal/schema"
	"github.com/reportdesk/report-portal/internal/spreadsheet"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrTemplateNameRequired   = errors.New("template name is required")
	ErrTemplateNameEmpty      = errors.New("template name cannot be empty")
	ErrDepartmentRequired     = errors.New("department_id must reference a department")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoFieldsSuggested    = errors.New("AI did not suggest any fields")
)

// TemplateService handles report templates and their schemas
type TemplateService struct {
	templateRepo repository.TemplateRepository
	orgRepo      repository.OrganizationRepository
	aiService    *AIService
	log          logrus.FieldLogger
}

// NewTemplateService creates a new TemplateService. aiService may be nil.
func NewTemplateService(templateRepo repository.TemplateRepository, orgRepo repository.OrganizationRepository, aiService *AIService, log logrus.FieldLogger) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		orgRepo:      orgRepo,
		aiService:    aiService,
		log:          log,
	}
}

// CreateTemplateInput represents input for creating a template
type CreateTemplateInput struct {
	Name         string
	Description  string
	DepartmentID *uint64
	Fields       []schema.Field
}

// UpdateTemplateInput represents input for updating template metadata
type UpdateTemplateInput struct {
	Name         *string
	Description  *string
	DepartmentID *uint64
}

// ListTemplatesInput represents filters for listing templates
type ListTemplatesInput struct {
	DepartmentID *uint64
	Search       string
	Page         int
	PageSize     int
}

// CreateTemplate creates a template with the default single-sheet schema.
// Department actors always create templates for their own department.
func (s *TemplateService) CreateTemplate(actor Actor, input CreateTemplateInput) (*models.ReportTemplate, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTemplateNameRequired
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleDepartment:
		if actor.OrganizationID == nil {
			return nil, ErrNoOrganization
		}
		input.DepartmentID = actor.OrganizationID
	default:
		return nil, ErrPermissionDenied
	}

	if err := s.ensureDepartment(input.DepartmentID); err != nil {
		return nil, err
	}

	sch, err := schema.New(input.Fields)
	if err != nil {
		return nil, err
	}
	if err := sch.Check(); err != nil {
		return nil, err
	}

	template := &models.ReportTemplate{
		Name:         name,
		Description:  input.Description,
		DepartmentID: input.DepartmentID,
		CreatedBy:    &actor.UserID,
	}
	if err := template.SetSchema(sch); err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}

	if err := s.templateRepo.Create(template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return template, nil
}

// GetTemplate returns a template together with its decoded schema
func (s *TemplateService) GetTemplate(id uint64) (*models.ReportTemplate, *schema.TemplateSchema, error) {
	template, err := s.templateRepo.FindByID(id, "Department")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, notFound("template", id)
		}
		return nil, nil, fmt.Errorf("failed to find template: %w", err)
	}

	sch, err := s.decodeSchema(template)
	if err != nil {
		return nil, nil, err
	}
	return template, sch, nil
}

// ListTemplates lists templates. Department actors only see their own.
func (s *TemplateService) ListTemplates(actor Actor, input ListTemplatesInput) ([]models.ReportTemplate, int64, error) {
	filter := repository.TemplateFilter{
		DepartmentID: input.DepartmentID,
		Search:       strings.TrimSpace(input.Search),
		Page:         input.Page,
		PageSize:     input.PageSize,
	}
	if actor.Role == models.RoleDepartment {
		if actor.OrganizationID == nil {
			return nil, 0, ErrNoOrganization
		}
		filter.DepartmentID = actor.OrganizationID
	}

	templates, total, err := s.templateRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, total, nil
}

// UpdateTemplate updates template metadata. Concurrent edits are
// last-writer-wins.
func (s *TemplateService) UpdateTemplate(actor Actor, id uint64, input UpdateTemplateInput) (*models.ReportTemplate, error) {
	template, err := s.findManaged(actor, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTemplateNameEmpty
		}
		template.Name = name
	}
	if input.Description != nil {
		template.Description = *input.Description
	}
	if input.DepartmentID != nil {
		if !actor.IsAdmin() {
			return nil, ErrPermissionDenied
		}
		if err := s.ensureDepartment(input.DepartmentID); err != nil {
			return nil, err
		}
		template.DepartmentID = input.DepartmentID
	}

	if err := s.templateRepo.Update(template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

// DeleteTemplate deletes a template and its assignments
func (s *TemplateService) DeleteTemplate(actor Actor, id uint64) error {
	if _, err := s.findManaged(actor, id); err != nil {
		return err
	}
	if err := s.templateRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("template", id)
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

// ReplaceSchema stores a complete schema after checking it. Templates keep
// their retired ids so removed fields are never reissued.
func (s *TemplateService) ReplaceSchema(actor Actor, id uint64, next *schema.TemplateSchema) (*models.ReportTemplate, *schema.TemplateSchema, error) {
	return s.MutateSchema(actor, id, func(current *schema.TemplateSchema) error {
		if err := checkProposed(next); err != nil {
			return err
		}
		for _, f := range next.Fields {
			if current.IsRetired(f.ID) {
				return &schema.DuplicateFieldError{ID: f.ID}
			}
		}
		retired := current.Retired
		for _, f := range current.Fields {
			if _, ok := next.Field(f.ID); !ok {
				retired = append(retired, f.ID)
			}
		}
		*current = *next.Clone()
		current.Retired = retired
		if current.Layout == "" {
			current.Layout = schema.LayoutRows
		}
		return nil
	})
}

// checkProposed checks a schema supplied by a client. Inconsistencies are the
// client's fault here, so they are reported as validation errors.
func checkProposed(next *schema.TemplateSchema) error {
	err := next.Check()
	var schemaErr *schema.SchemaError
	if !errors.As(err, &schemaErr) {
		return err
	}
	verr := &schema.ValidationError{Reason: schemaErr.Reason}
	if schemaErr.Sheet != "" {
		verr.Sheets = []string{schemaErr.Sheet}
	}
	if schemaErr.FieldID != "" {
		verr.Fields = []string{schemaErr.FieldID}
	}
	return verr
}

// MutateSchema applies fn to a copy of the template's schema and stores the
// result if it passes Check. Nothing is written when fn or Check fails.
func (s *TemplateService) MutateSchema(actor Actor, id uint64, fn func(*schema.TemplateSchema) error) (*models.ReportTemplate, *schema.TemplateSchema, error) {
	template, err := s.findManaged(actor, id)
	if err != nil {
		return nil, nil, err
	}
	current, err := s.decodeSchema(template)
	if err != nil {
		return nil, nil, err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, nil, err
	}
	if err := next.Check(); err != nil {
		s.logSchemaError(template.ID, err)
		return nil, nil, err
	}

	if err := template.SetSchema(next); err != nil {
		return nil, nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	if err := s.templateRepo.Update(template); err != nil {
		return nil, nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, next, nil
}

// AddField adds a field to the template's first sheet
func (s *TemplateService) AddField(actor Actor, id uint64, field schema.Field) (schema.Field, *schema.TemplateSchema, error) {
	var added schema.Field
	_, sch, err := s.MutateSchema(actor, id, func(sch *schema.TemplateSchema) error {
		typ, err := schema.ParseFieldType(string(field.Type))
		if err != nil {
			return err
		}
		if field.ID == "" {
			added, err = sch.AddField(field.Label, typ)
		} else {
			added, err = sch.AddFieldWithID(field.ID, field.Label, typ)
		}
		return err
	})
	return added, sch, err
}

// RemoveField removes a field from the catalogue and every sheet
func (s *TemplateService) RemoveField(actor Actor, id uint64, fieldID string) (*schema.TemplateSchema, error) {
	_, sch, err := s.MutateSchema(actor, id, func(sch *schema.TemplateSchema) error {
		return sch.RemoveField(fieldID)
	})
	return sch, err
}

// UpdateField relabels and/or retypes a field
func (s *TemplateService) UpdateField(actor Actor, id uint64, fieldID string, label *string, typ *schema.FieldType) (*schema.TemplateSchema, error) {
	_, sch, err := s.MutateSchema(actor, id, func(sch *schema.TemplateSchema) error {
		if label != nil {
			if err := sch.RelabelField(fieldID, *label); err != nil {
				return err
			}
		}
		if typ != nil {
			parsed, err := schema.ParseFieldType(string(*typ))
			if err != nil {
				return err
			}
			return sch.SetFieldType(fieldID, parsed)
		}
		return nil
	})
	return sch, err
}

// AddSheet adds a sheet pre-filled with every field. Sheet operations move a
// flat template to the rows layout.
func (s *TemplateService) AddSheet(actor Actor, id uint64, name string) (*schema.TemplateSchema, error) {
	return s.mutateSheets(actor, id, func(sch *schema.TemplateSchema) error {
		return sch.AddSheet(strings.TrimSpace(name))
	})
}

// AssignFieldsToSheet replaces a sheet's field list
func (s *TemplateService) AssignFieldsToSheet(actor Actor, id uint64, name string, fieldIDs []string) (*schema.TemplateSchema, error) {
	return s.mutateSheets(actor, id, func(sch *schema.TemplateSchema) error {
		return sch.AssignFieldsToSheet(name, fieldIDs)
	})
}

// RenameSheet renames a sheet
func (s *TemplateService) RenameSheet(actor Actor, id uint64, oldName, newName string) (*schema.TemplateSchema, error) {
	return s.mutateSheets(actor, id, func(sch *schema.TemplateSchema) error {
		return sch.RenameSheet(oldName, strings.TrimSpace(newName))
	})
}

// RemoveSheet removes a sheet
func (s *TemplateService) RemoveSheet(actor Actor, id uint64, name string) (*schema.TemplateSchema, error) {
	return s.mutateSheets(actor, id, func(sch *schema.TemplateSchema) error {
		return sch.RemoveSheet(name)
	})
}

func (s *TemplateService) mutateSheets(actor Actor, id uint64, fn func(*schema.TemplateSchema) error) (*schema.TemplateSchema, error) {
	_, sch, err := s.MutateSchema(actor, id, func(sch *schema.TemplateSchema) error {
		if err := fn(sch); err != nil {
			return err
		}
		sch.Layout = schema.LayoutRows
		return nil
	})
	return sch, err
}

// Blank renders the empty input workbook of a template
func (s *TemplateService) Blank(id uint64) ([]byte, string, error) {
	template, sch, err := s.GetTemplate(id)
	if err != nil {
		return nil, "", err
	}
	body, err := spreadsheet.EncodeBlank(sch)
	if err != nil {
		s.logSchemaError(template.ID, err)
		return nil, "", err
	}
	return body, distribution.SanitizeName(template.Name) + ".xlsx", nil
}

// SuggestFields asks the AI service for fields matching a free-text
// description. Suggestions are never stored.
func (s *TemplateService) SuggestFields(ctx context.Context, description string) ([]schema.Field, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	suggested, err := s.aiService.SuggestFields(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest fields: %w", err)
	}

	fields := make([]schema.Field, 0, len(suggested))
	seen := make(map[string]struct{}, len(suggested))
	for _, sf := range suggested {
		label := strings.TrimSpace(sf.Label)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}

		typ, err := schema.ParseFieldType(sf.Type)
		if err != nil {
			typ = schema.FieldText
		}
		fields = append(fields, schema.Field{Label: label, Type: typ})
		if len(fields) == constants.MaxSuggestedFields {
			break
		}
	}

	if len(fields) == 0 {
		return nil, ErrAINoFieldsSuggested
	}
	return fields, nil
}

func (s *TemplateService) findManaged(actor Actor, id uint64) (*models.ReportTemplate, error) {
	template, err := s.templateRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("template", id)
		}
		return nil, fmt.Errorf("failed to find template: %w", err)
	}
	if !actor.CanManageTemplate(template) {
		return nil, ErrPermissionDenied
	}
	return template, nil
}

func (s *TemplateService) ensureDepartment(id *uint64) error {
	if id == nil {
		return nil
	}
	org, err := s.orgRepo.FindByID(*id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("organization", *id)
		}
		return fmt.Errorf("failed to find organization: %w", err)
	}
	if org.Type != models.OrganizationDepartment {
		return ErrDepartmentRequired
	}
	return nil
}

func (s *TemplateService) decodeSchema(template *models.ReportTemplate) (*schema.TemplateSchema, error) {
	sch, err := template.Schema()
	if err != nil {
		s.log.WithError(err).WithField("template_id", template.ID).Error("stored template schema is unreadable")
		return nil, &schema.SchemaError{Reason: fmt.Sprintf("stored schema of template %d is unreadable: %v", template.ID, err)}
	}
	return sch, nil
}

func (s *TemplateService) logSchemaError(templateID uint64, err error) {
	if errors.Is(err, schema.ErrSchema) {
		s.log.WithError(err).WithField("template_id", templateID).Error("template schema is inconsistent")
	}
}
