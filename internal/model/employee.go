package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is roster master data (mechanics), distinct from login users.
// A work order's executor is an employee; its responsible is a user.
type Employee struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`

	Name     string    `gorm:"type:varchar(150);not null" json:"name"`
	Phone    string    `gorm:"type:varchar(30)" json:"phone"`
	Email    string    `gorm:"type:varchar(255)" json:"email"`
	HiredOn  time.Time `gorm:"type:date" json:"hired_on"`
	IsActive bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
