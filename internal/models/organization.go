package models

import (
	"time"

	"gorm.io/gorm"
)

type OrganizationType string

const (
	OrganizationUnit       OrganizationType = "unit"
	OrganizationDepartment OrganizationType = "department"
	OrganizationHolding    OrganizationType = "holding"
)

// Valid reports whether t is a known organization type.
func (t OrganizationType) Valid() bool {
	switch t {
	case OrganizationUnit, OrganizationDepartment, OrganizationHolding:
		return true
	}
	return false
}

type Organization struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	Name      string           `gorm:"type:varchar(255);not null" json:"name"`
	Type      OrganizationType `gorm:"type:varchar(20);not null;default:'unit'" json:"type"`
	ParentID  *uint64          `gorm:"index" json:"parent_id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relations
	Children    []Organization   `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Users       []User           `gorm:"foreignKey:OrganizationID" json:"-"`
	Assignments []AssignedReport `gorm:"foreignKey:OrganizationID" json:"-"`
}
