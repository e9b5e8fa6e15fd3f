package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	FarmerID      uint            `gorm:"not null;index" json:"farmer_id"`
	Farmer        User            `gorm:"foreignKey:FarmerID" json:"-"`
	CategoryID    uint            `gorm:"not null;index" json:"category_id"`
	Category      Category        `gorm:"foreignKey:CategoryID" json:"-"`
	Name          string          `gorm:"not null" json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Unit          string          `json:"unit"` // e.g. "kg", "bunch", "crate"
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	IsAvailable   bool            `gorm:"index" json:"is_available"`
	Image         string          `json:"image"`
	HarvestDate   *time.Time      `json:"harvest_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RecomputeAvailability re-derives IsAvailable from the current stock level.
// It is the only place IsAvailable may be set; callers persist the product
// afterwards within the same transaction as the stock change.
func (p *Product) RecomputeAvailability() {
	p.IsAvailable = p.StockQuantity > 0
}
