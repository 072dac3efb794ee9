package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduleType enum constants
const (
	ScheduleTypeDropOff = "DROP_OFF"
	ScheduleTypePickup  = "PICKUP"
	ScheduleTypeNote    = "NOTE"
)

// ValidScheduleType reports whether t is a known calendar entry type.
func ValidScheduleType(t string) bool {
	return t == ScheduleTypeDropOff || t == ScheduleTypePickup || t == ScheduleTypeNote
}

// Schedule is a calendar entry. The composite unique index is the one
// place a write can legitimately race: a duplicate-key error here means
// the slot is already booked, not a storage failure.
type Schedule struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_schedule_slot" json:"company_id"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_slot" json:"client_id"`
	Client    *Client   `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"client,omitempty"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_slot" json:"vehicle_id"`
	Vehicle   *Vehicle  `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"vehicle,omitempty"`

	Date time.Time `gorm:"type:date;not null;uniqueIndex:idx_schedule_slot" json:"date"`
	// Time is the "HH:MM" slot; empty for all-day notes.
	Time  string `gorm:"type:varchar(5);uniqueIndex:idx_schedule_slot" json:"time"`
	Type  string `gorm:"type:varchar(20);not null;default:'NOTE'" json:"type"`
	Notes string `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Schedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
