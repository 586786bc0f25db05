package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/report-portal/internal/constants"
	apierrors "github.com/reportdesk/report-portal/internal/errors"
	"github.com/reportdesk/report-portal/internal/middleware"
	"github.com/reportdesk/report-portal/internal/services"
	"gorm.io/gorm"
)

// actorFrom returns the request actor or writes a 401 response.
func actorFrom(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return services.Actor{}, false
	}
	return actor, true
}

// idParam parses a numeric path parameter or writes a 400 response.
func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return id, true
}

// optionalUint64Query parses an optional numeric query parameter.
func optionalUint64Query(c *gin.Context, name string) (*uint64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &v, nil
}

// optionalDateQuery parses an optional YYYY-MM-DD query parameter.
func optionalDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: expected YYYY-MM-DD", name)
	}
	return &v, nil
}

func attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, contentType, body)
}

// respondError maps service errors to API errors. Unexpected errors are
// recorded on the context for the request logger.
func respondError(c *gin.Context, err error) {
	if status, apiErr, ok := apierrors.FromDomainError(err); ok {
		if status >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		apierrors.RespondWithError(c, status, apiErr)
		return
	}

	switch {
	case errors.Is(err, services.ErrPermissionDenied),
		errors.Is(err, services.ErrNoOrganization):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNoSubmission):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrStatusReportEmpty),
		errors.Is(err, gorm.ErrRecordNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrUsernameRequired),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrOrganizationRequired),
		errors.Is(err, services.ErrOrganizationTypeMismatch),
		errors.Is(err, services.ErrUserOrganizationNotFound),
		errors.Is(err, services.ErrCannotDeleteYourself),
		errors.Is(err, services.ErrInvalidOrganizationName),
		errors.Is(err, services.ErrInvalidOrganizationType),
		errors.Is(err, services.ErrParentNotFound),
		errors.Is(err, services.ErrOrganizationCycle),
		errors.Is(err, services.ErrTemplateNameRequired),
		errors.Is(err, services.ErrTemplateNameEmpty),
		errors.Is(err, services.ErrDepartmentRequired),
		errors.Is(err, services.ErrNoOrganizationIDs),
		errors.Is(err, services.ErrDueDateRequired),
		errors.Is(err, services.ErrNoAssignmentIDs):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoFieldsSuggested):
		apierrors.RespondWithError(c, http.StatusBadGateway, apierrors.NewAPIError(apierrors.ErrCodeOperationFailed, err.Error()))
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}
