package services

import (
	"fmt"
	"time"

	"github.com/reportdesk/report-portal/internal/constants"
	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/repository"
)

// DashboardService serves the read-only status projections shown on the
// dashboard. Every status it reports is the effective status.
type DashboardService struct {
	assignmentRepo repository.AssignmentRepository
	templateRepo   repository.TemplateRepository
	userRepo       repository.UserRepository
	now            func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(assignmentRepo repository.AssignmentRepository, templateRepo repository.TemplateRepository, userRepo repository.UserRepository) *DashboardService {
	return &DashboardService{
		assignmentRepo: assignmentRepo,
		templateRepo:   templateRepo,
		userRepo:       userRepo,
		now:            time.Now,
	}
}

// Totals counts the main records of the installation
type Totals struct {
	Templates   int64 `json:"templates"`
	Assignments int64 `json:"assignments"`
	Users       int64 `json:"users"`
}

// Dashboard is the role-specific projection. Sections that do not apply to a
// role are left empty.
type Dashboard struct {
	Role              models.UserRole                      `json:"role"`
	Totals            *Totals                              `json:"totals,omitempty"`
	StatusCounts      map[models.ReportStatus]int64        `json:"status_counts"`
	ByOrganization    []repository.OrganizationStatusCount `json:"by_organization,omitempty"`
	RecentActivity    []models.AssignedReport              `json:"recent_activity,omitempty"`
	RecentSubmissions []models.ReportSubmission            `json:"recent_submissions,omitempty"`
	Upcoming          []models.AssignedReport              `json:"upcoming,omitempty"`
	ActionNeeded      []models.AssignedReport              `json:"action_needed,omitempty"`
}

// Dashboard builds the projection for the actor's role
func (s *DashboardService) Dashboard(actor Actor) (*Dashboard, error) {
	scope, err := actor.Scope()
	if err != nil {
		return nil, err
	}
	today := s.now()

	counts, err := s.assignmentRepo.CountByStatus(scope, today)
	if err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}
	d := &Dashboard{Role: actor.Role, StatusCounts: counts}

	switch actor.Role {
	case models.RoleAdmin:
		if err := s.fillAdmin(d, today); err != nil {
			return nil, err
		}
	case models.RoleDepartment:
		if d.ByOrganization, err = s.assignmentRepo.CountByOrganization(scope, today); err != nil {
			return nil, fmt.Errorf("failed to count assignments by organization: %w", err)
		}
		if d.RecentSubmissions, err = s.assignmentRepo.RecentSubmissions(scope, constants.RecentActivityLimit); err != nil {
			return nil, fmt.Errorf("failed to list recent submissions: %w", err)
		}
		for i := range d.RecentSubmissions {
			if a := d.RecentSubmissions[i].AssignedReport; a != nil {
				a.Status = a.EffectiveStatus(today)
			}
		}
	case models.RoleUnit:
		if d.Upcoming, err = s.assignmentRepo.Upcoming(scope, today, constants.UpcomingReportsLimit); err != nil {
			return nil, fmt.Errorf("failed to list upcoming assignments: %w", err)
		}
		if d.ActionNeeded, err = s.assignmentRepo.ActionNeeded(scope, today); err != nil {
			return nil, fmt.Errorf("failed to list open assignments: %w", err)
		}
		project(d.ActionNeeded, today)
	}

	return d, nil
}

func (s *DashboardService) fillAdmin(d *Dashboard, today time.Time) error {
	var err error
	totals := &Totals{}
	if totals.Templates, err = s.templateRepo.Count(); err != nil {
		return fmt.Errorf("failed to count templates: %w", err)
	}
	if totals.Users, err = s.userRepo.Count(); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	for _, n := range d.StatusCounts {
		totals.Assignments += n
	}
	d.Totals = totals

	if d.ByOrganization, err = s.assignmentRepo.CountByOrganization(repository.Scope{}, today); err != nil {
		return fmt.Errorf("failed to count assignments by organization: %w", err)
	}
	if d.RecentActivity, err = s.assignmentRepo.RecentActivity(repository.Scope{}, constants.RecentActivityLimit); err != nil {
		return fmt.Errorf("failed to list recent activity: %w", err)
	}
	project(d.RecentActivity, today)
	return nil
}

// project replaces stored statuses with effective ones
func project(assignments []models.AssignedReport, today time.Time) []models.AssignedReport {
	for i := range assignments {
		assignments[i].Status = assignments[i].EffectiveStatus(today)
	}
	return assignments
}
