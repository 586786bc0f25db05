package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/report-portal/internal/dto"
	apierrors "github.com/reportdesk/report-portal/internal/errors"
	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/repository"
	"github.com/reportdesk/report-portal/internal/services"
)

// OrganizationHandler serves the organization tree.
type OrganizationHandler struct {
	orgService *services.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
	}
}

// CreateOrganization creates a new organization
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	type CreateOrgRequest struct {
		Name     string                  `json:"name" binding:"required"`
		Type     models.OrganizationType `json:"type"`
		ParentID *uint64                 `json:"parent_id"`
	}

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.CreateOrganization(services.CreateOrganizationInput{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrganizationDTO(*org))
}

// ListOrganizations returns organizations, optionally filtered by type or parent
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	parentID, err := optionalUint64Query(c, "parent_id")
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	filter := repository.OrganizationFilter{ParentID: parentID}
	if raw := c.Query("type"); raw != "" {
		t := models.OrganizationType(raw)
		filter.Type = &t
	}

	orgs, err := h.orgService.ListOrganizations(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationListResponse(orgs))
}

// GetOrganization returns an organization with its direct children
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	org, err := h.orgService.GetOrganization(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

// ListDescendants returns every organization below the given one
func (h *OrganizationHandler) ListDescendants(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	orgs, err := h.orgService.Descendants(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationListResponse(orgs))
}

// UpdateOrganization renames, retypes or moves an organization
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	type UpdateOrgRequest struct {
		Name        *string                  `json:"name"`
		Type        *models.OrganizationType `json:"type"`
		ParentID    *uint64                  `json:"parent_id"`
		ClearParent bool                     `json:"clear_parent"`
	}

	var req UpdateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.UpdateOrganization(id, services.UpdateOrganizationInput{
		Name:        req.Name,
		Type:        req.Type,
		ParentID:    req.ParentID,
		ClearParent: req.ClearParent,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

// DeleteOrganization deletes an organization
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.orgService.DeleteOrganization(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Organization deleted successfully",
	})
}
