package services

import (
	"errors"
	"strconv"

	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/repository"
	"github.com/reportdesk/report-portal/internal/schema"
)

var (
	ErrPermissionDenied = errors.New("user does not have permission to perform this action")
	ErrNoOrganization   = errors.New("user is not attached to an organization")
)

// Actor is the authenticated caller of a service operation, taken from the
// request session.
type Actor struct {
	UserID         uint64
	Role           models.UserRole
	OrganizationID *uint64
}

// IsAdmin reports whether the actor may see and change everything.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Scope returns the assignment scope visible to the actor.
func (a Actor) Scope() (repository.Scope, error) {
	switch a.Role {
	case models.RoleAdmin:
		return repository.Scope{}, nil
	case models.RoleDepartment:
		if a.OrganizationID == nil {
			return repository.Scope{}, ErrNoOrganization
		}
		return repository.Scope{DepartmentID: a.OrganizationID}, nil
	case models.RoleUnit:
		if a.OrganizationID == nil {
			return repository.Scope{}, ErrNoOrganization
		}
		return repository.Scope{OrganizationID: a.OrganizationID}, nil
	}
	return repository.Scope{}, ErrPermissionDenied
}

// CanManageTemplate reports whether the actor may edit or assign t.
func (a Actor) CanManageTemplate(t *models.ReportTemplate) bool {
	switch a.Role {
	case models.RoleAdmin:
		return true
	case models.RoleDepartment:
		return a.OrganizationID != nil && t.DepartmentID != nil && *t.DepartmentID == *a.OrganizationID
	}
	return false
}

// CanAccessAssignment reports whether the actor may read a. Template must be
// loaded for department actors.
func (a Actor) CanAccessAssignment(assignment *models.AssignedReport) bool {
	switch a.Role {
	case models.RoleAdmin:
		return true
	case models.RoleDepartment:
		return a.CanManageTemplate(&assignment.Template)
	case models.RoleUnit:
		return a.OrganizationID != nil && assignment.OrganizationID == *a.OrganizationID
	}
	return false
}

func notFound(kind string, id uint64) error {
	return &schema.NotFoundError{Kind: kind, ID: strconv.FormatUint(id, 10)}
}
