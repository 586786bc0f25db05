package models

import (
	"time"

	"gorm.io/gorm"
)

type ReportStatus string

const (
	StatusPending   ReportStatus = "pending"
	StatusCompleted ReportStatus = "completed"
	StatusOverdue   ReportStatus = "overdue"
)

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusOverdue:
		return true
	}
	return false
}

// AssignedReport obliges one organization to submit one template by a due
// date. DueDate is stored as midnight UTC.
type AssignedReport struct {
	ID                  uint64         `gorm:"primarykey" json:"id"`
	TemplateID          uint64         `gorm:"not null;index" json:"template_id"`
	OrganizationID      uint64         `gorm:"not null;index" json:"organization_id"`
	DueDate             time.Time      `gorm:"type:date;not null;index" json:"due_date"`
	Status              ReportStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CurrentSubmissionID *uint64        `json:"current_submission_id"`
	AssignedBy          *uint64        `json:"assigned_by"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Template     ReportTemplate     `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
	Organization Organization       `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Submissions  []ReportSubmission `gorm:"foreignKey:AssignedReportID" json:"-"`
}

// EffectiveStatus is the status shown to users: a pending assignment whose
// due date lies before today reads as overdue.
func (a *AssignedReport) EffectiveStatus(today time.Time) ReportStatus {
	if a.Status == StatusPending && a.DueDate.Before(Day(today)) {
		return StatusOverdue
	}
	return a.Status
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
