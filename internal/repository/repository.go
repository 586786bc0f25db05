package repository

import (
	"time"

	"github.com/reportdesk/report-portal/internal/models"
)

// TemplateRepository defines the interface for report template data access
type TemplateRepository interface {
	// Create creates a new template
	Create(template *models.ReportTemplate) error

	// FindByID finds a template by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.ReportTemplate, error)

	// List retrieves templates with filtering and pagination
	List(filter TemplateFilter) ([]models.ReportTemplate, int64, error)

	// Update saves every column of a template
	Update(template *models.ReportTemplate) error

	// Delete soft deletes a template together with its assignments
	Delete(id uint64) error

	// Count counts templates
	Count() (int64, error)
}

// TemplateFilter holds filtering options for listing templates
type TemplateFilter struct {
	DepartmentID *uint64
	Search       string
	Page         int
	PageSize     int
}

// AssignmentRepository defines the interface for assignment and submission
// data access, including the read-only status projections.
type AssignmentRepository interface {
	// CreateMany creates assignments atomically
	CreateMany(assignments []models.AssignedReport) error

	// FindByID finds an assignment by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.AssignedReport, error)

	// List retrieves assignments with filtering and pagination
	List(filter AssignmentFilter) ([]models.AssignedReport, int64, error)

	// Delete soft deletes an assignment
	Delete(id uint64) error

	// Submit stores a submission and marks its assignment completed in one
	// transaction. With allowResubmission false a completed assignment is
	// rejected with ErrAssignmentCompleted.
	Submit(submission *models.ReportSubmission, allowResubmission bool) error

	// FindSubmission finds a submission by ID
	FindSubmission(id uint64) (*models.ReportSubmission, error)

	// ListSubmissions lists every submission of an assignment, newest first
	ListSubmissions(assignmentID uint64) ([]models.ReportSubmission, error)

	// MarkOverdue persists the overdue status for pending assignments due
	// before today and returns how many were updated
	MarkOverdue(today time.Time) (int64, error)

	// CountByStatus counts assignments per effective status
	CountByStatus(scope Scope, today time.Time) (map[models.ReportStatus]int64, error)

	// CountByOrganization counts assignments per organization and effective status
	CountByOrganization(scope Scope, today time.Time) ([]OrganizationStatusCount, error)

	// RecentActivity lists the most recently changed assignments
	RecentActivity(scope Scope, limit int) ([]models.AssignedReport, error)

	// RecentSubmissions lists the newest submissions
	RecentSubmissions(scope Scope, limit int) ([]models.ReportSubmission, error)

	// Upcoming lists pending assignments due today or later, soonest first
	Upcoming(scope Scope, today time.Time, limit int) ([]models.AssignedReport, error)

	// ActionNeeded lists open assignments, overdue ones first, then by due date
	ActionNeeded(scope Scope, today time.Time) ([]models.AssignedReport, error)
}

// AssignmentFilter holds filtering options for listing assignments. Status
// filters on the effective status as of Today.
type AssignmentFilter struct {
	Scope
	TemplateID  *uint64
	Status      *models.ReportStatus
	Today       time.Time
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	Page        int
	PageSize    int
}

// Scope narrows assignment queries to one department's templates or one
// organization. The zero value covers everything.
type Scope struct {
	DepartmentID   *uint64
	OrganizationID *uint64
}

// OrganizationStatusCount is one row of the organization by status breakdown
type OrganizationStatusCount struct {
	OrganizationID   uint64              `json:"organization_id"`
	OrganizationName string              `json:"organization_name"`
	Status           models.ReportStatus `json:"status"`
	Count            int64               `json:"count"`
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(org *models.Organization) error

	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)

	// FindByIDs finds the organizations with the given IDs
	FindByIDs(ids []uint64) ([]models.Organization, error)

	// List retrieves organizations with filtering
	List(filter OrganizationFilter) ([]models.Organization, error)

	// ListChildren lists the direct children of an organization
	ListChildren(parentID uint64) ([]models.Organization, error)

	// Update updates an organization
	Update(org *models.Organization) error

	// Delete deletes an organization, moving its children up to its parent
	Delete(id uint64) error
}

// OrganizationFilter holds filtering options for listing organizations
type OrganizationFilter struct {
	Type     *models.OrganizationType
	ParentID *uint64
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// List retrieves users with filtering and pagination
	List(filter UserFilter) ([]models.User, int64, error)

	// Update updates a user
	Update(user *models.User) error

	// Delete soft deletes a user
	Delete(id uint64) error

	// Count counts users
	Count() (int64, error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Role           *models.UserRole
	OrganizationID *uint64
	Page           int
	PageSize       int
}
