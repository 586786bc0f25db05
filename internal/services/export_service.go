package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reportdesk/report-portal/internal/distribution"
	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/repository"
	"github.com/reportdesk/report-portal/internal/schema"
	"github.com/reportdesk/report-portal/internal/spreadsheet"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrNoSubmission      = errors.New("assignment has no submission yet")
	ErrNoAssignmentIDs   = errors.New("at least one assignment ID is required")
	ErrStatusReportEmpty = errors.New("no assignments match the status report filters")
)

const statusReportFilePrefix = "report_status_"

// ExportService renders submissions as workbooks and publishes them
type ExportService struct {
	assignmentRepo repository.AssignmentRepository
	publisher      *distribution.Publisher
	workers        int
	now            func() time.Time
	log            logrus.FieldLogger
}

// NewExportService creates a new ExportService. workers bounds batch
// exports.
func NewExportService(assignmentRepo repository.AssignmentRepository, publisher *distribution.Publisher, workers int, log logrus.FieldLogger) *ExportService {
	if workers < 1 {
		workers = 1
	}
	return &ExportService{
		assignmentRepo: assignmentRepo,
		publisher:      publisher,
		workers:        workers,
		now:            time.Now,
		log:            log,
	}
}

// RenderedReport is a workbook built from an assignment's canonical submission
type RenderedReport struct {
	AssignmentID     uint64
	TemplateName     string
	OrganizationName string
	Filename         string
	Body             []byte
}

// BatchResult is the outcome of publishing one assignment in a batch
type BatchResult struct {
	AssignmentID uint64                 `json:"assignment_id"`
	Location     *distribution.Location `json:"location,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// Render encodes the canonical submission of an assignment
func (s *ExportService) Render(actor Actor, assignmentID uint64) (*RenderedReport, error) {
	assignment, err := s.assignmentRepo.FindByID(assignmentID, "Template", "Organization")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("assignment", assignmentID)
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	if !actor.CanAccessAssignment(assignment) {
		return nil, ErrPermissionDenied
	}
	if assignment.CurrentSubmissionID == nil {
		return nil, ErrNoSubmission
	}

	submission, err := s.assignmentRepo.FindSubmission(*assignment.CurrentSubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("submission", *assignment.CurrentSubmissionID)
		}
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}

	sch, err := assignment.Template.Schema()
	if err != nil {
		s.log.WithError(err).WithField("template_id", assignment.TemplateID).Error("stored template schema is unreadable")
		return nil, &schema.SchemaError{Reason: fmt.Sprintf("stored schema of template %d is unreadable: %v", assignment.TemplateID, err)}
	}
	payload, err := submission.Payload()
	if err != nil {
		return nil, fmt.Errorf("failed to decode submission %d: %w", submission.ID, err)
	}

	body, err := spreadsheet.Encode(sch, payload)
	if err != nil {
		if errors.Is(err, schema.ErrSchema) {
			s.log.WithError(err).WithField("template_id", assignment.TemplateID).Error("template schema is inconsistent")
		}
		return nil, err
	}

	return &RenderedReport{
		AssignmentID:     assignment.ID,
		TemplateName:     assignment.Template.Name,
		OrganizationName: assignment.Organization.Name,
		Filename:         distribution.RenderFilename(assignment.Template.Name, assignment.Organization.Name, s.now()),
		Body:             body,
	}, nil
}

// Publish renders an assignment and addresses it in the document library
func (s *ExportService) Publish(ctx context.Context, actor Actor, assignmentID uint64) (distribution.Location, error) {
	report, err := s.Render(actor, assignmentID)
	if err != nil {
		return distribution.Location{}, err
	}

	loc, err := s.publisher.Publish(ctx, report.Body, report.TemplateName, report.OrganizationName, spreadsheet.ContentType)
	if err != nil {
		return distribution.Location{}, err
	}

	s.log.WithFields(logrus.Fields{
		"assignment_id": assignmentID,
		"uri":           loc.URI,
		"uploaded":      loc.Uploaded,
	}).Info("report published")
	return loc, nil
}

// PublishBatch publishes many assignments on a bounded pool of workers. A
// failing assignment is reported in its result and does not stop the others;
// only cancellation of ctx aborts the batch.
func (s *ExportService) PublishBatch(ctx context.Context, actor Actor, assignmentIDs []uint64) ([]BatchResult, error) {
	if len(assignmentIDs) == 0 {
		return nil, ErrNoAssignmentIDs
	}

	ids := uniqueUint64(assignmentIDs)
	results := make([]BatchResult, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i].AssignmentID = id
			loc, err := s.Publish(ctx, actor, id)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i].Error = err.Error()
				return nil
			}
			results[i].Location = &loc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// StatusRows lists the status of every assignment visible to the actor
func (s *ExportService) StatusRows(actor Actor, status *models.ReportStatus) ([]spreadsheet.StatusRow, error) {
	scope, err := actor.Scope()
	if err != nil {
		return nil, err
	}

	today := s.now()
	assignments, _, err := s.assignmentRepo.List(repository.AssignmentFilter{
		Scope:  scope,
		Status: status,
		Today:  today,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	rows := make([]spreadsheet.StatusRow, len(assignments))
	for i, a := range assignments {
		rows[i] = spreadsheet.StatusRow{
			ID:           a.ID,
			ReportName:   a.Template.Name,
			Organization: a.Organization.Name,
			DueDate:      a.DueDate,
			Status:       string(a.EffectiveStatus(today)),
		}
	}
	return rows, nil
}

// StatusWorkbook renders the status report of every assignment visible to
// the actor
func (s *ExportService) StatusWorkbook(actor Actor, status *models.ReportStatus) ([]byte, string, error) {
	rows, err := s.StatusRows(actor, status)
	if err != nil {
		return nil, "", err
	}
	if len(rows) == 0 {
		return nil, "", ErrStatusReportEmpty
	}

	now := s.now()
	body, err := spreadsheet.EncodeStatusReport(rows, now)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render status report: %w", err)
	}
	return body, statusReportFilePrefix + now.Format("20060102_150405") + ".xlsx", nil
}
