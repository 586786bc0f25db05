package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/report-portal/internal/dto"
	apierrors "github.com/reportdesk/report-portal/internal/errors"
	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/services"
	"github.com/reportdesk/report-portal/internal/utils"
)

// UserHandler serves user administration.
type UserHandler struct {
	authService *services.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

// ListUsers returns a page of users, optionally filtered by role and organization.
func (h *UserHandler) ListUsers(c *gin.Context) {
	orgID, err := optionalUint64Query(c, "organization_id")
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	var role *models.UserRole
	if raw := c.Query("role"); raw != "" {
		r := models.UserRole(raw)
		if !r.Valid() {
			apierrors.BadRequest(c, services.ErrInvalidRole.Error())
			return
		}
		role = &r
	}

	params := utils.GetPaginationParams(c)
	users, total, err := h.authService.ListUsers(services.ListUsersInput{
		Role:           role,
		OrganizationID: orgID,
		Page:           params.Page,
		PageSize:       params.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users, params.Page, params.Limit, total))
}

// CreateUser creates an account.
func (h *UserHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		Username       string          `json:"username" binding:"required,min=3,max=100"`
		Password       string          `json:"password" binding:"required"`
		Role           models.UserRole `json:"role" binding:"required"`
		OrganizationID *uint64         `json:"organization_id"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.CreateUser(services.CreateUserInput{
		Username:       req.Username,
		Password:       req.Password,
		Role:           req.Role,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// UpdateUser changes the password, role or organization of a user.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		Password       *string          `json:"password"`
		Role           *models.UserRole `json:"role"`
		OrganizationID *uint64          `json:"organization_id"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.UpdateUser(id, services.UpdateUserInput{
		Password:       req.Password,
		Role:           req.Role,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser removes an account other than the caller's own.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.authService.DeleteUser(actor.UserID, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}
