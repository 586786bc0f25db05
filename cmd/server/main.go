package main

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/reportdesk/report-portal/internal/config"
	"github.com/reportdesk/report-portal/internal/constants"
	"github.com/reportdesk/report-portal/internal/database"
	"github.com/reportdesk/report-portal/internal/distribution"
	"github.com/reportdesk/report-portal/internal/handlers"
	"github.com/reportdesk/report-portal/internal/logging"
	"github.com/reportdesk/report-portal/internal/repository"
	"github.com/reportdesk/report-portal/internal/services"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()
	isProduction := cfg.GinMode == "release"
	log := logging.New(cfg.LogLevel, isProduction)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg, log); err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	db := database.GetDB()

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(log))

	// Setup session middleware with Redis
	store := newSessionStore(cfg, log)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Initialize document library
	var uploader distribution.Uploader
	s3Uploader, err := distribution.NewS3Uploader(context.Background(), cfg.DistributionS3Bucket, cfg.AWSRegion)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure S3 uploader")
	}
	if s3Uploader.Enabled() {
		uploader = s3Uploader
		log.WithField("bucket", s3Uploader.Bucket).Info("Publishing reports to S3")
	}
	publisher := distribution.NewPublisher(distribution.Settings{
		BaseURL:       cfg.DistributionBaseURL,
		Library:       cfg.DistributionLibrary,
		UseOrgFolders: cfg.DistributionUseOrgFolders,
	}, uploader)

	// Initialize repositories and services
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	authService := services.NewAuthService(userRepo, orgRepo)
	orgService := services.NewOrganizationService(orgRepo)
	templateService := services.NewTemplateService(templateRepo, orgRepo, aiService, log)
	assignmentService := services.NewAssignmentService(assignmentRepo, templateRepo, orgRepo, cfg.AllowResubmission, log)
	exportService := services.NewExportService(assignmentRepo, publisher, cfg.ExportWorkers, log)
	dashboardService := services.NewDashboardService(assignmentRepo, templateRepo, userRepo)

	// Initialize handlers
	handlers.RegisterRoutes(r, handlers.Handlers{
		Auth:          handlers.NewAuthHandler(authService),
		Users:         handlers.NewUserHandler(authService),
		Organizations: handlers.NewOrganizationHandler(orgService),
		Templates:     handlers.NewTemplateHandler(templateService),
		Assignments:   handlers.NewAssignmentHandler(assignmentService, exportService),
		Reports:       handlers.NewReportHandler(exportService, dashboardService),
	})

	// Start server
	log.WithField("port", cfg.Port).Info("Server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

// newSessionStore connects the Redis session store. Without Redis, sessions
// fall back to signed cookies so a single instance still works.
func newSessionStore(cfg *config.Config, log logrus.FieldLogger) sessions.Store {
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,                        // Redis pool size
		"tcp",                     // network type
		redisAddr,                 // Redis address from config
		"",                        // username (empty for default user)
		"",                        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.WithError(err).WithField("addr", redisAddr).Warn("Redis unavailable, using cookie sessions")
		return cookie.NewStore([]byte(cfg.SessionSecret))
	}
	return store
}
