package models

import "github.com/google/uuid"

// VehicleMake and VehicleModel are shared reference data, not tenant scoped.
type VehicleMake struct {
	Base
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

func (VehicleMake) TableName() string {
	return "vehicle_makes"
}

type VehicleModel struct {
	Base
	Name   string    `gorm:"uniqueIndex:idx_vehicle_models_name_make;not null" json:"name"`
	MakeID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_vehicle_models_name_make;index;not null" json:"make_id"`

	Make *VehicleMake `gorm:"foreignKey:MakeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (VehicleModel) TableName() string {
	return "vehicle_models"
}

// Vehicle restricts deletion of its make and model while it exists.
type Vehicle struct {
	Base
	RegistrationNumber string    `gorm:"uniqueIndex;not null" json:"registration_number"`
	VIN                *string   `gorm:"column:vin;uniqueIndex" json:"vin,omitempty"`
	Color              string    `json:"color,omitempty"`
	Year               int       `json:"year,omitempty"`
	OrganizationID     uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	CustomerID         uuid.UUID `gorm:"type:uuid;index;not null" json:"customer_id"`
	MakeID             uuid.UUID `gorm:"type:uuid;index;not null" json:"make_id"`
	ModelID            uuid.UUID `gorm:"type:uuid;index;not null" json:"model_id"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	Customer     *Customer     `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	Make         *VehicleMake  `gorm:"foreignKey:MakeID;constraint:OnDelete:RESTRICT" json:"-"`
	Model        *VehicleModel `gorm:"foreignKey:ModelID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}
