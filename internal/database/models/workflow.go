package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusSent     QuoteStatus = "SENT"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
	QuoteStatusRejected QuoteStatus = "REJECTED"
)

type JobCardStatus string

const (
	JobCardStatusPending    JobCardStatus = "PENDING"
	JobCardStatusInProgress JobCardStatus = "IN_PROGRESS"
	JobCardStatusCompleted  JobCardStatus = "COMPLETED"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	InvoiceStatusSent  InvoiceStatus = "SENT"
	InvoiceStatusPaid  InvoiceStatus = "PAID"
	InvoiceStatusVoid  InvoiceStatus = "VOID"
)

// Totals are stored, not derived: Total = SubTotal + VATAmount.
type Totals struct {
	SubTotal  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"sub_total"`
	VATAmount decimal.Decimal `gorm:"column:vat_amount;type:numeric(12,2);not null;default:0" json:"vat_amount"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total"`
}

// Quote -> JobCard -> Invoice is an optional linear chain. Removing a
// customer or vehicle removes its documents as well.
type Quote struct {
	Base
	QuoteNumber        string      `gorm:"uniqueIndex;not null" json:"quote_number"`
	Status             QuoteStatus `gorm:"not null;index;default:'DRAFT'" json:"status"`
	ClientInstructions string      `gorm:"type:text" json:"client_instructions,omitempty"`
	OrganizationID     uuid.UUID   `gorm:"type:uuid;index;not null" json:"organization_id"`
	CustomerID         uuid.UUID   `gorm:"type:uuid;index;not null" json:"customer_id"`
	VehicleID          uuid.UUID   `gorm:"type:uuid;index;not null" json:"vehicle_id"`
	Totals
	SentAt     *time.Time `json:"sent_at,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	Customer     *Customer     `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	Vehicle      *Vehicle      `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Quote) TableName() string {
	return "quotes"
}

type JobCard struct {
	Base
	JobCardNumber   string        `gorm:"uniqueIndex;not null" json:"job_card_number"`
	Status          JobCardStatus `gorm:"not null;index;default:'PENDING'" json:"status"`
	OdometerReading *int          `json:"odometer_reading,omitempty"`
	MechanicNotes   string        `gorm:"type:text" json:"mechanic_notes,omitempty"`
	OrganizationID  uuid.UUID     `gorm:"type:uuid;index;not null" json:"organization_id"`
	CustomerID      uuid.UUID     `gorm:"type:uuid;index;not null" json:"customer_id"`
	VehicleID       uuid.UUID     `gorm:"type:uuid;index;not null" json:"vehicle_id"`
	QuoteID         *uuid.UUID    `gorm:"type:uuid;uniqueIndex" json:"quote_id,omitempty"`
	Totals
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	Customer     *Customer     `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	Vehicle      *Vehicle      `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"-"`
	Quote        *Quote        `gorm:"foreignKey:QuoteID;constraint:OnDelete:SET NULL" json:"-"`
}

func (JobCard) TableName() string {
	return "job_cards"
}

type Invoice struct {
	Base
	InvoiceNumber  string        `gorm:"uniqueIndex;not null" json:"invoice_number"`
	Status         InvoiceStatus `gorm:"not null;index;default:'DRAFT'" json:"status"`
	InvoiceDate    time.Time     `gorm:"not null" json:"invoice_date"`
	DueDate        *time.Time    `json:"due_date,omitempty"`
	OrganizationID uuid.UUID     `gorm:"type:uuid;index;not null" json:"organization_id"`
	CustomerID     uuid.UUID     `gorm:"type:uuid;index;not null" json:"customer_id"`
	VehicleID      uuid.UUID     `gorm:"type:uuid;index;not null" json:"vehicle_id"`
	JobCardID      *uuid.UUID    `gorm:"type:uuid;uniqueIndex" json:"job_card_id,omitempty"`
	Totals
	IsImmutable bool       `gorm:"not null;default:false" json:"is_immutable"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	Customer     *Customer     `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	Vehicle      *Vehicle      `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"-"`
	JobCard      *JobCard      `gorm:"foreignKey:JobCardID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Invoice) TableName() string {
	return "invoices"
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if err := i.Base.BeforeCreate(tx); err != nil {
		return err
	}
	if i.InvoiceDate.IsZero() {
		i.InvoiceDate = time.Now()
	}
	return nil
}
