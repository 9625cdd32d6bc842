package models

import (
	"fmt"

	"gorm.io/gorm"

	"airg/internal/rbac"
)

// Membership links one user to one organization with a role. Rows are
// deactivated, not deleted, so the audit trail keeps its references.
type Membership struct {
	Base
	UserID         string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_membership_pair;index" json:"userId"`
	OrganizationID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_membership_pair;index" json:"organizationId"`
	Role           rbac.Role `gorm:"size:50;not null;default:member" json:"role"`
	IsActive       bool      `gorm:"not null" json:"isActive"`

	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (m *Membership) BeforeSave(*gorm.DB) error {
	if !m.Role.Valid() {
		return fmt.Errorf("invalid membership role %q", m.Role)
	}
	return nil
}
