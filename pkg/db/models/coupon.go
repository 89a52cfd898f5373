package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bayancosmetic/storefront/pkg/enums"
)

// Coupon is a redeemable discount code. Fixed values are expressed in MAD.
type Coupon struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string             `gorm:"column:code;not null"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:numeric(10,2);not null"`
	MinOrderCents int64              `gorm:"column:min_order_cents;not null;default:0"`
	MaxUses       *int               `gorm:"column:max_uses"`
	UsedCount     int                `gorm:"column:used_count;not null;default:0"`
	ExpiresAt     *time.Time         `gorm:"column:expires_at"`
	IsActive      bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
