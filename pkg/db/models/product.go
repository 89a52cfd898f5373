package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog item; this service only reads price and mutates stock.
type Product struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug              string    `gorm:"column:slug;not null"`
	Name              string    `gorm:"column:name;not null"`
	PriceCents        int64     `gorm:"column:price_cents;not null"`
	StockQuantity     int       `gorm:"column:stock_quantity;not null;default:0"`
	ShippingCostCents *int64    `gorm:"column:shipping_cost_cents"`
	Size              *string   `gorm:"column:size"`
	ImageURL          *string   `gorm:"column:image_url"`
	IsActive          bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
