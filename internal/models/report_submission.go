package models

import (
	"encoding/json"
	"time"

	"github.com/reportdesk/report-portal/internal/schema"
	"gorm.io/datatypes"
)

// ReportSubmission is one accepted payload. Rows are never updated; a newer
// submission supersedes it through AssignedReport.CurrentSubmissionID.
type ReportSubmission struct {
	ID               uint64         `gorm:"primarykey" json:"id"`
	AssignedReportID uint64         `gorm:"not null;index" json:"assigned_report_id"`
	Data             datatypes.JSON `gorm:"not null" json:"data"`
	SubmittedBy      *uint64        `json:"submitted_by"`
	SubmittedAt      time.Time      `gorm:"not null;index" json:"submitted_at"`

	// Relations
	AssignedReport *AssignedReport `gorm:"foreignKey:AssignedReportID" json:"assigned_report,omitempty"`
}

// Payload decodes the stored data.
func (s *ReportSubmission) Payload() (schema.Payload, error) {
	var p schema.Payload
	if err := json.Unmarshal(s.Data, &p); err != nil {
		return schema.Payload{}, err
	}
	return p, nil
}
