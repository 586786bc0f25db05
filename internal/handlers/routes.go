package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/report-portal/internal/middleware"
	"github.com/reportdesk/report-portal/internal/models"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Organizations *OrganizationHandler
	Templates     *TemplateHandler
	Assignments   *AssignmentHandler
	Reports       *ReportHandler
}

// RegisterRoutes mounts the health check and the /api tree on r. Session
// middleware must already be installed.
func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Report Portal API is running",
		})
	})

	adminOnly := middleware.RequireRole(models.RoleAdmin)
	managers := middleware.RequireRole(models.RoleAdmin, models.RoleDepartment)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/me", middleware.RequireAuth(), h.Auth.GetCurrentUser)
		}

		// Organization routes (protected)
		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth())
		{
			orgs.GET("", h.Organizations.ListOrganizations)
			orgs.POST("", adminOnly, h.Organizations.CreateOrganization)
			orgs.GET("/:id", h.Organizations.GetOrganization)
			orgs.GET("/:id/descendants", h.Organizations.ListDescendants)
			orgs.PUT("/:id", adminOnly, h.Organizations.UpdateOrganization)
			orgs.DELETE("/:id", adminOnly, h.Organizations.DeleteOrganization)
		}

		// User routes (admin)
		users := api.Group("/users")
		users.Use(middleware.RequireAuth(), adminOnly)
		{
			users.GET("", h.Users.ListUsers)
			users.POST("", h.Users.CreateUser)
			users.PUT("/:id", h.Users.UpdateUser)
			users.DELETE("/:id", h.Users.DeleteUser)
		}

		// Template routes (protected)
		templates := api.Group("/templates")
		templates.Use(middleware.RequireAuth())
		{
			templates.GET("", h.Templates.ListTemplates)
			templates.POST("", managers, h.Templates.CreateTemplate)
			templates.POST("/suggest-fields", managers, h.Templates.SuggestFields)
			templates.GET("/:id", h.Templates.GetTemplate)
			templates.PUT("/:id", managers, h.Templates.UpdateTemplate)
			templates.DELETE("/:id", managers, h.Templates.DeleteTemplate)
			templates.PUT("/:id/schema", managers, h.Templates.ReplaceSchema)
			templates.POST("/:id/fields", managers, h.Templates.AddField)
			templates.PATCH("/:id/fields/:field_id", managers, h.Templates.UpdateField)
			templates.DELETE("/:id/fields/:field_id", managers, h.Templates.RemoveField)
			templates.POST("/:id/sheets", managers, h.Templates.AddSheet)
			templates.PUT("/:id/sheets/:name", managers, h.Templates.AssignFieldsToSheet)
			templates.PATCH("/:id/sheets/:name", managers, h.Templates.RenameSheet)
			templates.DELETE("/:id/sheets/:name", managers, h.Templates.RemoveSheet)
			templates.GET("/:id/blank", h.Templates.DownloadBlank)
		}

		// Assignment routes (protected)
		assignments := api.Group("/assignments")
		assignments.Use(middleware.RequireAuth())
		{
			assignments.GET("", h.Assignments.ListAssignments)
			assignments.POST("", managers, h.Assignments.CreateAssignments)
			assignments.POST("/export", managers, h.Assignments.PublishBatch)
			assignments.POST("/refresh-overdue", adminOnly, h.Assignments.RefreshOverdue)
			assignments.GET("/:id", h.Assignments.GetAssignment)
			assignments.DELETE("/:id", managers, h.Assignments.DeleteAssignment)
			assignments.POST("/:id/submit", h.Assignments.Submit)
			assignments.POST("/:id/upload", h.Assignments.Upload)
			assignments.GET("/:id/export", h.Assignments.Export)
			assignments.POST("/:id/publish", managers, h.Assignments.Publish)
		}

		// Report routes (protected)
		reports := api.Group("/reports")
		reports.Use(middleware.RequireAuth())
		{
			reports.GET("/status", h.Reports.StatusReport)
			reports.GET("/status.xlsx", h.Reports.StatusReportWorkbook)
		}

		api.GET("/dashboard", middleware.RequireAuth(), h.Reports.Dashboard)
	}
}
