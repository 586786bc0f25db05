package models

import (
	"time"

	"github.com/reportdesk/report-portal/internal/schema"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportTemplate persists a template and its schema. SheetStructure is NULL
// for templates that predate sheet configuration.
type ReportTemplate struct {
	ID              uint64         `gorm:"primarykey" json:"id"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	Fields          datatypes.JSON `gorm:"not null" json:"fields"`
	SheetStructure  datatypes.JSON `json:"sheet_structure"`
	RetiredFieldIDs datatypes.JSON `json:"-"`
	DepartmentID    *uint64        `gorm:"index" json:"department_id"`
	CreatedBy       *uint64        `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Department  *Organization    `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Assignments []AssignedReport `gorm:"foreignKey:TemplateID" json:"-"`
}

// Schema decodes the stored columns.
func (t *ReportTemplate) Schema() (*schema.TemplateSchema, error) {
	return schema.FromRecord(t.Fields, t.SheetStructure, t.RetiredFieldIDs)
}

// SetSchema writes s back into the record's columns.
func (t *ReportTemplate) SetSchema(s *schema.TemplateSchema) error {
	fields, err := s.MarshalFields()
	if err != nil {
		return err
	}
	sheets, err := s.MarshalSheets()
	if err != nil {
		return err
	}
	retired, err := s.MarshalRetired()
	if err != nil {
		return err
	}
	t.Fields = datatypes.JSON(fields)
	t.SheetStructure = datatypes.JSON(sheets)
	t.RetiredFieldIDs = datatypes.JSON(retired)
	return nil
}
