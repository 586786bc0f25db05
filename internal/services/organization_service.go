package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound    = errors.New("organization not found")
	ErrInvalidOrganizationName = errors.New("organization name cannot be empty")
	ErrInvalidOrganizationType = errors.New("organization type must be unit, department or holding")
	ErrParentNotFound          = errors.New("parent organization not found")
	ErrOrganizationCycle       = errors.New("an organization cannot be its own ancestor")
)

// OrganizationService provides business logic for the organization tree.
type OrganizationService struct {
	orgRepo repository.OrganizationRepository
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository) *OrganizationService {
	return &OrganizationService{
		orgRepo: orgRepo,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name     string
	Type     models.OrganizationType
	ParentID *uint64
}

// UpdateOrganizationInput represents parameters to update an organization.
// ClearParent detaches the organization from its parent.
type UpdateOrganizationInput struct {
	Name        *string
	Type        *models.OrganizationType
	ParentID    *uint64
	ClearParent bool
}

// CreateOrganization creates a new organization.
func (s *OrganizationService) CreateOrganization(input CreateOrganizationInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}
	if input.Type == "" {
		input.Type = models.OrganizationUnit
	}
	if !input.Type.Valid() {
		return nil, ErrInvalidOrganizationType
	}
	if input.ParentID != nil {
		if _, err := s.findParent(*input.ParentID); err != nil {
			return nil, err
		}
	}

	org := &models.Organization{
		Name:     name,
		Type:     input.Type,
		ParentID: input.ParentID,
	}
	if err := s.orgRepo.Create(org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return org, nil
}

// GetOrganization returns an organization with its direct children.
func (s *OrganizationService) GetOrganization(orgID uint64) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	children, err := s.orgRepo.ListChildren(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list child organizations: %w", err)
	}
	org.Children = children

	return org, nil
}

// ListOrganizations lists organizations, optionally by type or parent.
func (s *OrganizationService) ListOrganizations(filter repository.OrganizationFilter) ([]models.Organization, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, ErrInvalidOrganizationType
	}
	orgs, err := s.orgRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// Descendants returns every organization below orgID, breadth first.
func (s *OrganizationService) Descendants(orgID uint64) ([]models.Organization, error) {
	if _, err := s.GetOrganization(orgID); err != nil {
		return nil, err
	}

	var out []models.Organization
	queue := []uint64{orgID}
	seen := map[uint64]struct{}{orgID: {}}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		children, err := s.orgRepo.ListChildren(id)
		if err != nil {
			return nil, fmt.Errorf("failed to list child organizations: %w", err)
		}
		for _, child := range children {
			if _, ok := seen[child.ID]; ok {
				continue
			}
			seen[child.ID] = struct{}{}
			out = append(out, child)
			queue = append(queue, child.ID)
		}
	}
	return out, nil
}

// UpdateOrganization updates an organization. Moving it below itself or one
// of its descendants is rejected.
func (s *OrganizationService) UpdateOrganization(orgID uint64, input UpdateOrganizationInput) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidOrganizationName
		}
		org.Name = name
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, ErrInvalidOrganizationType
		}
		org.Type = *input.Type
	}

	switch {
	case input.ClearParent:
		org.ParentID = nil
	case input.ParentID != nil:
		if err := s.ensureNoCycle(orgID, *input.ParentID); err != nil {
			return nil, err
		}
		org.ParentID = input.ParentID
	}

	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return org, nil
}

// DeleteOrganization removes an organization. Its children move up to its
// parent and its assignments are deleted.
func (s *OrganizationService) DeleteOrganization(orgID uint64) error {
	if err := s.orgRepo.Delete(orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	return nil
}

// ensureNoCycle walks up from parentID and fails if it reaches orgID
func (s *OrganizationService) ensureNoCycle(orgID, parentID uint64) error {
	seen := make(map[uint64]struct{})
	current := &parentID
	for current != nil {
		if *current == orgID {
			return ErrOrganizationCycle
		}
		if _, ok := seen[*current]; ok {
			return ErrOrganizationCycle
		}
		seen[*current] = struct{}{}

		parent, err := s.findParent(*current)
		if err != nil {
			return err
		}
		current = parent.ParentID
	}
	return nil
}

func (s *OrganizationService) findParent(id uint64) (*models.Organization, error) {
	parent, err := s.orgRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParentNotFound
		}
		return nil, fmt.Errorf("failed to find parent organization: %w", err)
	}
	return parent, nil
}
