package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a company-scoped customer record.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`

	Name     string `gorm:"type:varchar(150);not null" json:"name"`
	Phone    string `gorm:"type:varchar(30);not null" json:"phone"`
	Email    string `gorm:"type:varchar(255)" json:"email"`
	Document string `gorm:"type:varchar(30)" json:"document"`
	Zip      string `gorm:"type:varchar(12)" json:"zip"`
	Street   string `gorm:"type:varchar(150)" json:"street"`
	Number   string `gorm:"type:varchar(20)" json:"number"`
	District string `gorm:"type:varchar(100)" json:"district"`
	City     string `gorm:"type:varchar(100)" json:"city"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeSave normalizes the name the same way the shop staff type it on paper.
func (c *Client) BeforeSave(tx *gorm.DB) error {
	c.Name = strings.ToUpper(strings.TrimSpace(c.Name))
	return nil
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
