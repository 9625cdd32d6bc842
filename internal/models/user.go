package models

import (
	"fmt"

	"gorm.io/gorm"
)

// UserRole is the advisory, global role on a user account. It plays no part
// in organization permissions.
type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleUser       UserRole = "user"
	UserRoleResearcher UserRole = "researcher"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleUser, UserRoleResearcher:
		return true
	}
	return false
}

type User struct {
	Base
	Email        string   `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Name         string   `gorm:"size:100;not null" json:"name"`
	PasswordHash string   `gorm:"size:255;not null" json:"-"`
	IsActive     bool     `gorm:"not null;default:false" json:"isActive"`
	Role         UserRole `gorm:"size:50" json:"role,omitempty"`

	Memberships []Membership `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
}

func (u *User) BeforeSave(*gorm.DB) error {
	if u.Role != "" && !u.Role.Valid() {
		return fmt.Errorf("invalid user role %q", u.Role)
	}
	return nil
}

// PublicProfile is the part of a user that may leave the service.
type PublicProfile struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role,omitempty"`
}

func (u User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
