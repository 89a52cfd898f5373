package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem snapshots a cart line at placement time.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	Position       int       `gorm:"column:position;not null;default:0"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName    string    `gorm:"column:product_name;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	SubtotalCents  int64     `gorm:"column:subtotal_cents;not null"`
	SizeLabel      *string   `gorm:"column:size_label"`
	StockApplied   bool      `gorm:"column:stock_applied;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
