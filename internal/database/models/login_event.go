package models

import "github.com/google/uuid"

// LoginEvent is one row of the login audit trail. Reason codes are for
// operators only and never reach the client.
type LoginEvent struct {
	Base
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index" json:"organization_id,omitempty"`
	Email          string     `gorm:"index" json:"email"`
	Success        bool       `gorm:"not null" json:"success"`
	Reason         string     `json:"reason,omitempty"`
	IP             string     `json:"ip,omitempty"`
}

func (LoginEvent) TableName() string {
	return "login_events"
}
