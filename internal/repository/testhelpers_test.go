package repository

import (
	"testing"
	"time"

	"github.com/reportdesk/report-portal/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory SQLite database. A single connection
// keeps every query on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func createOrg(t *testing.T, db *gorm.DB, name string, typ models.OrganizationType, parentID *uint64) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: name, Type: typ, ParentID: parentID}
	require.NoError(t, db.Create(org).Error)
	return org
}

func createTemplate(t *testing.T, db *gorm.DB, name string, departmentID *uint64) *models.ReportTemplate {
	t.Helper()
	tmpl := &models.ReportTemplate{
		Name:         name,
		Fields:       datatypes.JSON(`[{"id":"f1","label":"Revenue","type":"number"}]`),
		DepartmentID: departmentID,
	}
	require.NoError(t, db.Create(tmpl).Error)
	return tmpl
}

func createAssignment(t *testing.T, db *gorm.DB, templateID, orgID uint64, due time.Time, status models.ReportStatus) *models.AssignedReport {
	t.Helper()
	a := &models.AssignedReport{
		TemplateID:     templateID,
		OrganizationID: orgID,
		DueDate:        models.Day(due),
		Status:         status,
	}
	require.NoError(t, db.Omit("Template", "Organization").Create(a).Error)
	return a
}

func ptr[T any](v T) *T { return &v }
