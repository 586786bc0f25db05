package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/repository"
	"github.com/reportdesk/report-portal/internal/schema"
	"github.com/reportdesk/report-portal/internal/spreadsheet"
	"github.com/reportdesk/report-portal/internal/validator"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNoOrganizationIDs = errors.New("at least one organization ID is required")
	ErrDueDateRequired   = errors.New("due_date is required")
)

// AssignmentService assigns templates to organizations and accepts
// submissions against those assignments.
type AssignmentService struct {
	assignmentRepo    repository.AssignmentRepository
	templateRepo      repository.TemplateRepository
	orgRepo           repository.OrganizationRepository
	allowResubmission bool
	now               func() time.Time
	log               logrus.FieldLogger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	templateRepo repository.TemplateRepository,
	orgRepo repository.OrganizationRepository,
	allowResubmission bool,
	log logrus.FieldLogger,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo:    assignmentRepo,
		templateRepo:      templateRepo,
		orgRepo:           orgRepo,
		allowResubmission: allowResubmission,
		now:               time.Now,
		log:               log,
	}
}

// AssignTemplateInput represents input for assigning a template
type AssignTemplateInput struct {
	TemplateID      uint64
	OrganizationIDs []uint64
	DueDate         time.Time
}

// ListAssignmentsInput represents filters for listing assignments
type ListAssignmentsInput struct {
	TemplateID     *uint64
	OrganizationID *uint64
	Status         *models.ReportStatus
	DueDateFrom    *time.Time
	DueDateTo      *time.Time
	Page           int
	PageSize       int
}

// SubmitInput represents a submission of a payload against an assignment
type SubmitInput struct {
	AssignmentID uint64
	Payload      schema.Payload
}

// AssignTemplate creates one pending assignment per organization. Past due
// dates are accepted and read as overdue.
func (s *AssignmentService) AssignTemplate(actor Actor, input AssignTemplateInput) ([]models.AssignedReport, error) {
	if len(input.OrganizationIDs) == 0 {
		return nil, ErrNoOrganizationIDs
	}
	if input.DueDate.IsZero() {
		return nil, ErrDueDateRequired
	}

	template, err := s.templateRepo.FindByID(input.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("template", input.TemplateID)
		}
		return nil, fmt.Errorf("failed to find template: %w", err)
	}
	if !actor.CanManageTemplate(template) {
		return nil, ErrPermissionDenied
	}

	orgIDs := uniqueUint64(input.OrganizationIDs)
	orgs, err := s.orgRepo.FindByIDs(orgIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find organizations: %w", err)
	}
	for _, id := range orgIDs {
		if !slices.ContainsFunc(orgs, func(o models.Organization) bool { return o.ID == id }) {
			return nil, notFound("organization", id)
		}
	}

	assignments := make([]models.AssignedReport, len(orgIDs))
	for i, id := range orgIDs {
		assignments[i] = models.AssignedReport{
			TemplateID:     template.ID,
			OrganizationID: id,
			DueDate:        models.Day(input.DueDate),
			Status:         models.StatusPending,
			AssignedBy:     &actor.UserID,
		}
	}

	if err := s.assignmentRepo.CreateMany(assignments); err != nil {
		return nil, fmt.Errorf("failed to create assignments: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"template_id":   template.ID,
		"organizations": len(assignments),
		"due_date":      models.Day(input.DueDate).Format(time.DateOnly),
	}).Info("template assigned")

	return project(assignments, s.now()), nil
}

// GetAssignment returns an assignment with its effective status
func (s *AssignmentService) GetAssignment(actor Actor, id uint64) (*models.AssignedReport, error) {
	assignment, err := s.findAccessible(actor, id)
	if err != nil {
		return nil, err
	}
	assignment.Status = assignment.EffectiveStatus(s.now())
	return assignment, nil
}

// ListAssignments lists the assignments visible to the actor. Status filters
// and reports the effective status.
func (s *AssignmentService) ListAssignments(actor Actor, input ListAssignmentsInput) ([]models.AssignedReport, int64, error) {
	scope, err := actor.Scope()
	if err != nil {
		return nil, 0, err
	}
	if input.OrganizationID != nil && scope.OrganizationID == nil {
		scope.OrganizationID = input.OrganizationID
	}

	assignments, total, err := s.assignmentRepo.List(repository.AssignmentFilter{
		Scope:       scope,
		TemplateID:  input.TemplateID,
		Status:      input.Status,
		Today:       s.now(),
		DueDateFrom: input.DueDateFrom,
		DueDateTo:   input.DueDateTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assignments: %w", err)
	}
	return project(assignments, s.now()), total, nil
}

// DeleteAssignment deletes an assignment
func (s *AssignmentService) DeleteAssignment(actor Actor, id uint64) error {
	assignment, err := s.findAccessible(actor, id)
	if err != nil {
		return err
	}
	if !actor.CanManageTemplate(&assignment.Template) {
		return ErrPermissionDenied
	}
	if err := s.assignmentRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("assignment", id)
		}
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

// Submit validates a payload against the assignment's template and stores it
// as the new canonical submission. The submission and the status change are
// written atomically.
func (s *AssignmentService) Submit(actor Actor, input SubmitInput) (*models.ReportSubmission, error) {
	assignment, sch, err := s.loadForSubmit(actor, input.AssignmentID)
	if err != nil {
		return nil, err
	}
	return s.submit(actor, assignment, sch, input.Payload)
}

// SubmitUpload decodes an uploaded workbook and submits its contents.
// Decode warnings are returned whether or not the submission is accepted.
func (s *AssignmentService) SubmitUpload(actor Actor, assignmentID uint64, r io.Reader) (*models.ReportSubmission, []spreadsheet.Warning, error) {
	assignment, sch, err := s.loadForSubmit(actor, assignmentID)
	if err != nil {
		return nil, nil, err
	}

	payload, warnings, err := spreadsheet.Decode(r, sch)
	for _, w := range warnings {
		s.log.WithFields(logrus.Fields{
			"assignment_id": assignmentID,
			"sheet":         w.Sheet,
		}).Warn(w.String())
	}
	if err != nil {
		return nil, warnings, err
	}

	submission, err := s.submit(actor, assignment, sch, payload)
	return submission, warnings, err
}

// ListSubmissions lists every submission of an assignment, newest first
func (s *AssignmentService) ListSubmissions(actor Actor, id uint64) ([]models.ReportSubmission, error) {
	if _, err := s.findAccessible(actor, id); err != nil {
		return nil, err
	}
	submissions, err := s.assignmentRepo.ListSubmissions(id)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

// RefreshOverdue persists the overdue status of pending assignments whose due
// date has passed.
func (s *AssignmentService) RefreshOverdue(actor Actor) (int64, error) {
	if !actor.IsAdmin() {
		return 0, ErrPermissionDenied
	}
	n, err := s.assignmentRepo.MarkOverdue(s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to refresh overdue assignments: %w", err)
	}
	s.log.WithField("updated", n).Info("overdue assignments refreshed")
	return n, nil
}

func (s *AssignmentService) loadForSubmit(actor Actor, id uint64) (*models.AssignedReport, *schema.TemplateSchema, error) {
	assignment, err := s.findAccessible(actor, id)
	if err != nil {
		return nil, nil, err
	}
	if actor.Role == models.RoleDepartment {
		return nil, nil, ErrPermissionDenied
	}

	sch, err := assignment.Template.Schema()
	if err != nil {
		s.log.WithError(err).WithField("template_id", assignment.TemplateID).Error("stored template schema is unreadable")
		return nil, nil, &schema.SchemaError{Reason: fmt.Sprintf("stored schema of template %d is unreadable: %v", assignment.TemplateID, err)}
	}
	return assignment, sch, nil
}

func (s *AssignmentService) submit(actor Actor, assignment *models.AssignedReport, sch *schema.TemplateSchema, payload schema.Payload) (*models.ReportSubmission, error) {
	accepted, err := validator.Validate(sch, payload)
	if err != nil {
		if errors.Is(err, schema.ErrSchema) {
			s.log.WithError(err).WithField("template_id", assignment.TemplateID).Error("template schema is inconsistent")
		}
		return nil, err
	}

	data, err := json.Marshal(accepted)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	submission := &models.ReportSubmission{
		AssignedReportID: assignment.ID,
		Data:             datatypes.JSON(data),
		SubmittedBy:      &actor.UserID,
		SubmittedAt:      s.now(),
	}
	if err := s.assignmentRepo.Submit(submission, s.allowResubmission); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, notFound("assignment", assignment.ID)
		case errors.Is(err, repository.ErrAssignmentCompleted):
			return nil, &schema.AlreadyFinalizedError{AssignmentID: assignment.ID}
		}
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"assignment_id": assignment.ID,
		"submission_id": submission.ID,
		"user_id":       actor.UserID,
	}).Info("submission accepted")

	return submission, nil
}

func (s *AssignmentService) findAccessible(actor Actor, id uint64) (*models.AssignedReport, error) {
	assignment, err := s.assignmentRepo.FindByID(id, "Template", "Organization")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("assignment", id)
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	if !actor.CanAccessAssignment(assignment) {
		return nil, ErrPermissionDenied
	}
	return assignment, nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
