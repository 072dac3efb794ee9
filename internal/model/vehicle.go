package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleType enum constants
const (
	VehicleTypeMotorcycle = "MOTORCYCLE"
	VehicleTypeCar        = "CAR"
	VehicleTypeTruck      = "TRUCK"
)

// Vehicle belongs to a client. Plates are unique within a company only;
// two companies may both register the same plate.
type Vehicle struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_company_plate" json:"company_id"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Client    *Client   `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"client,omitempty"`

	Type    string `gorm:"type:varchar(10);not null" json:"type"`
	Plate   string `gorm:"type:varchar(10);not null;uniqueIndex:idx_company_plate" json:"plate"`
	Brand   string `gorm:"type:varchar(50)" json:"brand"`
	ModelID string `gorm:"column:model;type:varchar(50)" json:"model"`
	Year    string `gorm:"type:varchar(9)" json:"year"`
	Color   string `gorm:"type:varchar(30)" json:"color"`
	Mileage *int   `json:"mileage"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
