package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleOwner    UserRole = "OWNER"
	RoleAdmin    UserRole = "ADMIN"
	RoleMechanic UserRole = "MECHANIC"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMechanic:
		return true
	}
	return false
}

type User struct {
	Base
	Name           string     `json:"name"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"` // stored lower case
	HashedPassword string     `gorm:"column:hashed_password" json:"-"` // empty: no password set
	Role           UserRole   `gorm:"not null;default:'MECHANIC'" json:"role"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"organization,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BeforeSave keeps the unique index on email case-insensitive in effect.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return nil
}
