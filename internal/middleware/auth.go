package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/reportdesk/report-portal/internal/constants"
	apierrors "github.com/reportdesk/report-portal/internal/errors"
	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/services"
)

// RequireAuth checks if the user is authenticated via session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(constants.ContextKeyUserID)

		if userID == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		// Store the session identity in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		if role, ok := session.Get(constants.ContextKeyRole).(string); ok {
			c.Set(constants.ContextKeyRole, models.UserRole(role))
		}
		if orgID := session.Get(constants.ContextKeyOrganizationID); orgID != nil {
			c.Set(constants.ContextKeyOrganizationID, orgID)
		}
		c.Next()
	}
}

// RequireRole rejects authenticated users whose role is not listed.
// It must run after RequireAuth.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		apierrors.InsufficientPermissions(c, "")
		c.Abort()
	}
}

// SaveSession stores the identity of user in the session
func SaveSession(session sessions.Session, user *models.User) error {
	session.Set(constants.ContextKeyUserID, user.ID)
	session.Set(constants.ContextKeyRole, string(user.Role))
	if user.OrganizationID != nil {
		session.Set(constants.ContextKeyOrganizationID, *user.OrganizationID)
	} else {
		session.Delete(constants.ContextKeyOrganizationID)
	}
	return session.Save()
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUint64(userID)
}

// GetRole retrieves the current user role from context
func GetRole(c *gin.Context) models.UserRole {
	role, _ := c.Get(constants.ContextKeyRole)
	switch v := role.(type) {
	case models.UserRole:
		return v
	case string:
		return models.UserRole(v)
	}
	return ""
}

// GetActor builds the service actor for the current request
func GetActor(c *gin.Context) (services.Actor, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		return services.Actor{}, false
	}

	actor := services.Actor{UserID: userID, Role: GetRole(c)}
	if raw, exists := c.Get(constants.ContextKeyOrganizationID); exists {
		if orgID, ok := toUint64(raw); ok {
			actor.OrganizationID = &orgID
		}
	}
	return actor, true
}

func toUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case float64:
		// JSON-backed session stores decode numbers as float64
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
