package models

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrLineItemParent is returned when a line item is attached to zero or to
// several of quote, job card and invoice.
var ErrLineItemParent = errors.New("line item must belong to exactly one of quote, job card or invoice")

type LineItem struct {
	Base
	Description   string          `gorm:"type:text;not null" json:"description"`
	Quantity      int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	ServiceItemID *uuid.UUID      `gorm:"type:uuid;index" json:"service_item_id,omitempty"`
	QuoteID       *uuid.UUID      `gorm:"type:uuid;index;check:chk_line_items_single_parent,(CASE WHEN quote_id IS NULL THEN 0 ELSE 1 END + CASE WHEN job_card_id IS NULL THEN 0 ELSE 1 END + CASE WHEN invoice_id IS NULL THEN 0 ELSE 1 END) = 1" json:"quote_id,omitempty"`
	JobCardID     *uuid.UUID      `gorm:"type:uuid;index" json:"job_card_id,omitempty"`
	InvoiceID     *uuid.UUID      `gorm:"type:uuid;index" json:"invoice_id,omitempty"`

	ServiceItem *ServiceItem `gorm:"foreignKey:ServiceItemID;constraint:OnDelete:SET NULL" json:"-"`
	Quote       *Quote       `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"-"`
	JobCard     *JobCard     `gorm:"foreignKey:JobCardID;constraint:OnDelete:CASCADE" json:"-"`
	Invoice     *Invoice     `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (LineItem) TableName() string {
	return "line_items"
}

func (l *LineItem) parentCount() int {
	n := 0
	for _, id := range []*uuid.UUID{l.QuoteID, l.JobCardID, l.InvoiceID} {
		if id != nil && *id != uuid.Nil {
			n++
		}
	}
	return n
}

// BeforeSave enforces the single-parent rule and keeps Total = Quantity x UnitPrice.
func (l *LineItem) BeforeSave(tx *gorm.DB) error {
	if l.parentCount() != 1 {
		return ErrLineItemParent
	}
	if l.Quantity == 0 {
		l.Quantity = 1
	}
	l.Total = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	return nil
}
