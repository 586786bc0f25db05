package repository

import (
	"errors"
	"time"

	"github.com/reportdesk/report-portal/internal/database"
	"github.com/reportdesk/report-portal/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAssignmentCompleted is returned by Submit when resubmission is disabled
// and the assignment already has an accepted submission.
var ErrAssignmentCompleted = errors.New("assignment repository: assignment already completed")

// effectiveStatusSQL labels pending assignments past their due date as
// overdue. It takes today's date as its only parameter.
const effectiveStatusSQL = "CASE WHEN assigned_reports.status = 'pending' AND assigned_reports.due_date < ? THEN 'overdue' ELSE assigned_reports.status END"

// GormAssignmentRepository is a GORM implementation of AssignmentRepository
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// CreateMany creates assignments atomically
func (r *GormAssignmentRepository) CreateMany(assignments []models.AssignedReport) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(&assignments).Error
	})
}

// FindByID finds an assignment by ID with optional preloading
func (r *GormAssignmentRepository) FindByID(id uint64, preload ...string) (*models.AssignedReport, error) {
	var assignment models.AssignedReport
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&assignment, id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// scoped restricts an assigned_reports query to scope.
func scoped(query *gorm.DB, scope Scope) *gorm.DB {
	if scope.OrganizationID != nil {
		query = query.Where("assigned_reports.organization_id = ?", *scope.OrganizationID)
	}
	if scope.DepartmentID != nil {
		query = query.
			Joins("JOIN report_templates ON report_templates.id = assigned_reports.template_id AND report_templates.deleted_at IS NULL").
			Where("report_templates.department_id = ?", *scope.DepartmentID)
	}
	return query
}

// List retrieves assignments with filtering and pagination
func (r *GormAssignmentRepository) List(filter AssignmentFilter) ([]models.AssignedReport, int64, error) {
	today := models.Day(filter.Today)
	query := scoped(r.db.Model(&models.AssignedReport{}), filter.Scope)

	if filter.TemplateID != nil {
		query = query.Where("assigned_reports.template_id = ?", *filter.TemplateID)
	}
	if filter.Status != nil {
		switch *filter.Status {
		case models.StatusOverdue:
			query = query.Where("assigned_reports.status = ? OR (assigned_reports.status = ? AND assigned_reports.due_date < ?)",
				models.StatusOverdue, models.StatusPending, today)
		case models.StatusPending:
			query = query.Where("assigned_reports.status = ? AND assigned_reports.due_date >= ?", models.StatusPending, today)
		default:
			query = query.Where("assigned_reports.status = ?", *filter.Status)
		}
	}
	if filter.DueDateFrom != nil {
		query = query.Where("assigned_reports.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("assigned_reports.due_date < ?", *filter.DueDateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.
		Order("assigned_reports.due_date ASC").Order("assigned_reports.id ASC").
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	var assignments []models.AssignedReport
	if err := listQuery.Preload("Template").Preload("Organization").Find(&assignments).Error; err != nil {
		return nil, 0, err
	}
	return assignments, total, nil
}

// Delete soft deletes an assignment
func (r *GormAssignmentRepository) Delete(id uint64) error {
	res := r.db.Delete(&models.AssignedReport{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Submit stores a submission and marks its assignment completed in one
// transaction.
func (r *GormAssignmentRepository) Submit(submission *models.ReportSubmission, allowResubmission bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(submission).Error; err != nil {
			return err
		}

		update := tx.Model(&models.AssignedReport{}).Where("id = ?", submission.AssignedReportID)
		if !allowResubmission {
			update = update.Where("status <> ?", models.StatusCompleted)
		}
		res := update.Updates(map[string]interface{}{
			"status":                models.StatusCompleted,
			"current_submission_id": submission.ID,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var existing models.AssignedReport
		if err := tx.Select("id", "status").First(&existing, submission.AssignedReportID).Error; err != nil {
			return err
		}
		return ErrAssignmentCompleted
	})
}

// FindSubmission finds a submission by ID
func (r *GormAssignmentRepository) FindSubmission(id uint64) (*models.ReportSubmission, error) {
	var submission models.ReportSubmission
	if err := r.db.First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListSubmissions lists every submission of an assignment, newest first
func (r *GormAssignmentRepository) ListSubmissions(assignmentID uint64) ([]models.ReportSubmission, error) {
	var submissions []models.ReportSubmission
	err := r.db.Where("assigned_report_id = ?", assignmentID).
		Order("submitted_at DESC").Order("id DESC").
		Find(&submissions).Error
	return submissions, err
}

// MarkOverdue persists the overdue status for pending assignments due before today
func (r *GormAssignmentRepository) MarkOverdue(today time.Time) (int64, error) {
	res := r.db.Model(&models.AssignedReport{}).
		Where("status = ? AND due_date < ?", models.StatusPending, models.Day(today)).
		Update("status", models.StatusOverdue)
	return res.RowsAffected, res.Error
}

// CountByStatus counts assignments per effective status
func (r *GormAssignmentRepository) CountByStatus(scope Scope, today time.Time) (map[models.ReportStatus]int64, error) {
	var rows []struct {
		EffectiveStatus models.ReportStatus
		Total           int64
	}
	err := scoped(r.db.Model(&models.AssignedReport{}), scope).
		Select(effectiveStatusSQL+" AS effective_status, COUNT(*) AS total", models.Day(today)).
		Group("effective_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[models.ReportStatus]int64{
		models.StatusPending:   0,
		models.StatusCompleted: 0,
		models.StatusOverdue:   0,
	}
	for _, row := range rows {
		counts[row.EffectiveStatus] += row.Total
	}
	return counts, nil
}

// CountByOrganization counts assignments per organization and effective status
func (r *GormAssignmentRepository) CountByOrganization(scope Scope, today time.Time) ([]OrganizationStatusCount, error) {
	var rows []struct {
		OrganizationID   uint64
		OrganizationName string
		EffectiveStatus  models.ReportStatus
		Total            int64
	}
	err := scoped(r.db.Model(&models.AssignedReport{}), scope).
		Joins("JOIN organizations ON organizations.id = assigned_reports.organization_id").
		Select("organizations.id AS organization_id, organizations.name AS organization_name, "+
			effectiveStatusSQL+" AS effective_status, COUNT(*) AS total", models.Day(today)).
		Group("organizations.id, organizations.name, effective_status").
		Order("organizations.name ASC").
		Order("effective_status ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]OrganizationStatusCount, len(rows))
	for i, row := range rows {
		counts[i] = OrganizationStatusCount{
			OrganizationID:   row.OrganizationID,
			OrganizationName: row.OrganizationName,
			Status:           row.EffectiveStatus,
			Count:            row.Total,
		}
	}
	return counts, nil
}

// RecentActivity lists the most recently changed assignments
func (r *GormAssignmentRepository) RecentActivity(scope Scope, limit int) ([]models.AssignedReport, error) {
	var assignments []models.AssignedReport
	err := scoped(r.db.Model(&models.AssignedReport{}), scope).
		Preload("Template").Preload("Organization").
		Order("assigned_reports.updated_at DESC").
		Limit(limit).
		Find(&assignments).Error
	return assignments, err
}

// RecentSubmissions lists the newest submissions
func (r *GormAssignmentRepository) RecentSubmissions(scope Scope, limit int) ([]models.ReportSubmission, error) {
	inScope := scoped(r.db.Model(&models.AssignedReport{}).Select("assigned_reports.id"), scope)

	var submissions []models.ReportSubmission
	err := r.db.Where("assigned_report_id IN (?)", inScope).
		Preload("AssignedReport.Template").Preload("AssignedReport.Organization").
		Order("submitted_at DESC").Order("id DESC").
		Limit(limit).
		Find(&submissions).Error
	return submissions, err
}

// Upcoming lists pending assignments due today or later, soonest first
func (r *GormAssignmentRepository) Upcoming(scope Scope, today time.Time, limit int) ([]models.AssignedReport, error) {
	var assignments []models.AssignedReport
	err := scoped(r.db.Model(&models.AssignedReport{}), scope).
		Where("assigned_reports.status = ? AND assigned_reports.due_date >= ?", models.StatusPending, models.Day(today)).
		Preload("Template").Preload("Organization").
		Order("assigned_reports.due_date ASC").
		Limit(limit).
		Find(&assignments).Error
	return assignments, err
}

// ActionNeeded lists open assignments, overdue ones first, then by due date
func (r *GormAssignmentRepository) ActionNeeded(scope Scope, today time.Time) ([]models.AssignedReport, error) {
	var assignments []models.AssignedReport
	err := scoped(r.db.Model(&models.AssignedReport{}), scope).
		Where("assigned_reports.status IN ?", []models.ReportStatus{models.StatusPending, models.StatusOverdue}).
		Preload("Template").Preload("Organization").
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN " + effectiveStatusSQL + " = 'overdue' THEN 0 ELSE 1 END, assigned_reports.due_date ASC, assigned_reports.id ASC",
			Vars:               []interface{}{models.Day(today)},
			WithoutParentheses: true,
		}}).
		Find(&assignments).Error
	return assignments, err
}
