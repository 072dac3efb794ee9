package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a stocked part or supply. Names are unique per company.
type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_company_product_name" json:"company_id"`

	Name        string           `gorm:"type:varchar(150);not null;uniqueIndex:idx_company_product_name" json:"name"`
	Code        string           `gorm:"type:varchar(50)" json:"code"`
	Description string           `gorm:"type:text" json:"description"`
	Cost        *decimal.Decimal `gorm:"type:decimal(10,2)" json:"cost"`
	Price       decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"price"`

	// CurrentStock nil means the product is not stock-tracked.
	CurrentStock *int `json:"current_stock"`
	MinimumStock int  `gorm:"default:0" json:"minimum_stock"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// StockCritical reports whether the product is at or below its minimum.
// Untracked products are never critical.
func (p *Product) StockCritical() bool {
	return p.CurrentStock != nil && *p.CurrentStock <= p.MinimumStock
}
