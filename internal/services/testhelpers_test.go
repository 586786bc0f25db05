package services

import (
	"testing"
	"time"

	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/repository"
	"github.com/reportdesk/report-portal/internal/schema"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

// env wires every service over one in-memory SQLite database.
type env struct {
	db   *gorm.DB
	log  *logrus.Logger
	hook *test.Hook

	templateRepo   repository.TemplateRepository
	assignmentRepo repository.AssignmentRepository
	orgRepo        repository.OrganizationRepository
	userRepo       repository.UserRepository

	templates   *TemplateService
	assignments *AssignmentService

	admin Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.ReportTemplate{},
		&models.AssignedReport{},
		&models.ReportSubmission{},
	))

	log, hook := test.NewNullLogger()
	e := &env{
		db:             db,
		log:            log,
		hook:           hook,
		templateRepo:   repository.NewTemplateRepository(db),
		assignmentRepo: repository.NewAssignmentRepository(db),
		orgRepo:        repository.NewOrganizationRepository(db),
		userRepo:       repository.NewUserRepository(db),
		admin:          Actor{UserID: 1, Role: models.RoleAdmin},
	}
	e.templates = NewTemplateService(e.templateRepo, e.orgRepo, nil, log)
	e.assignments = e.newAssignmentService(true)
	return e
}

func (e *env) newAssignmentService(allowResubmission bool) *AssignmentService {
	s := NewAssignmentService(e.assignmentRepo, e.templateRepo, e.orgRepo, allowResubmission, e.log)
	s.now = func() time.Time { return fixedNow }
	return s
}

func (e *env) org(t *testing.T, name string, typ models.OrganizationType) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: name, Type: typ}
	require.NoError(t, e.orgRepo.Create(org))
	return org
}

// revenueTemplate creates the two-field template used across the tests.
func (e *env) revenueTemplate(t *testing.T, departmentID *uint64) *models.ReportTemplate {
	t.Helper()
	tmpl, err := e.templates.CreateTemplate(e.admin, CreateTemplateInput{
		Name:         "Monthly revenue",
		DepartmentID: departmentID,
		Fields: []schema.Field{
			{ID: "f1", Label: "Revenue", Type: schema.FieldNumber},
			{ID: "f2", Label: "Notes", Type: schema.FieldText},
		},
	})
	require.NoError(t, err)
	return tmpl
}

func (e *env) assign(t *testing.T, templateID uint64, due time.Time, orgs ...*models.Organization) []models.AssignedReport {
	t.Helper()
	ids := make([]uint64, len(orgs))
	for i, o := range orgs {
		ids[i] = o.ID
	}
	assignments, err := e.assignments.AssignTemplate(e.admin, AssignTemplateInput{
		TemplateID:      templateID,
		OrganizationIDs: ids,
		DueDate:         due,
	})
	require.NoError(t, err)
	return assignments
}

func unitActor(org *models.Organization) Actor {
	return Actor{UserID: 100 + org.ID, Role: models.RoleUnit, OrganizationID: &org.ID}
}

func departmentActor(org *models.Organization) Actor {
	return Actor{UserID: 200 + org.ID, Role: models.RoleDepartment, OrganizationID: &org.ID}
}

func ptr[T any](v T) *T { return &v }
