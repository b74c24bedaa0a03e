package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceItem is an entry in an organization's library of billable work.
type ServiceItem struct {
	Base
	Description    string              `gorm:"type:text;not null" json:"description"`
	DefaultPrice   decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"default_price"`
	OrganizationID uuid.UUID           `gorm:"type:uuid;index;not null" json:"organization_id"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ServiceItem) TableName() string {
	return "service_items"
}
