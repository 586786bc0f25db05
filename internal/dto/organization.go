package dto

import (
	"time"

	"github.com/reportdesk/report-portal/internal/models"
)

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID        uint64                  `json:"id"`
	Name      string                  `json:"name"`
	Type      models.OrganizationType `json:"type"`
	ParentID  *uint64                 `json:"parent_id"`
	CreatedAt time.Time               `json:"created_at"`
	Children  []OrganizationDTO       `json:"children,omitempty"`
}

// OrganizationRefDTO is the short form of an organization embedded in other resources
type OrganizationRefDTO struct {
	ID   uint64                  `json:"id"`
	Name string                  `json:"name"`
	Type models.OrganizationType `json:"type"`
}

// OrganizationListResponse represents a list of organizations
type OrganizationListResponse struct {
	Organizations []OrganizationDTO `json:"organizations"`
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	dto := OrganizationDTO{
		ID:        org.ID,
		Name:      org.Name,
		Type:      org.Type,
		ParentID:  org.ParentID,
		CreatedAt: org.CreatedAt,
	}
	if len(org.Children) > 0 {
		dto.Children = make([]OrganizationDTO, len(org.Children))
		for i, child := range org.Children {
			dto.Children[i] = ToOrganizationDTO(child)
		}
	}
	return dto
}

// ToOrganizationRefDTO returns nil unless the organization was preloaded
func ToOrganizationRefDTO(org *models.Organization) *OrganizationRefDTO {
	if org == nil || org.ID == 0 {
		return nil
	}
	return &OrganizationRefDTO{ID: org.ID, Name: org.Name, Type: org.Type}
}

// ToOrganizationListResponse converts organizations to a list response
func ToOrganizationListResponse(orgs []models.Organization) OrganizationListResponse {
	items := make([]OrganizationDTO, len(orgs))
	for i, org := range orgs {
		items[i] = ToOrganizationDTO(org)
	}
	return OrganizationListResponse{Organizations: items}
}
