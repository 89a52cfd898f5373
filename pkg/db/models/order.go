package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bayancosmetic/storefront/pkg/enums"
)

// Order is the header row of a placed order. StockApplied and CouponRedeemed
// stay false when best-effort bookkeeping failed and reconciliation is pending.
// BookkeepingSettledAt is nil while a best-effort checkout is still applying
// its stock and coupon writes.
type Order struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber          string              `gorm:"column:order_number;not null"`
	CustomerName         string              `gorm:"column:customer_name;not null"`
	CustomerPhone        string              `gorm:"column:customer_phone;not null"`
	CustomerAddress      string              `gorm:"column:customer_address;not null"`
	CustomerCity         string              `gorm:"column:customer_city;not null"`
	SubtotalCents        int64               `gorm:"column:subtotal_cents;not null"`
	ShippingCents        int64               `gorm:"column:shipping_cents;not null"`
	DiscountCents        int64               `gorm:"column:discount_cents;not null;default:0"`
	TotalCents           int64               `gorm:"column:total_cents;not null"`
	CouponID             *uuid.UUID          `gorm:"column:coupon_id;type:uuid"`
	CouponCode           *string             `gorm:"column:coupon_code"`
	Status               enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentMethod        enums.PaymentMethod `gorm:"column:payment_method;not null;default:'cod'"`
	Notes                *string             `gorm:"column:notes"`
	StockApplied         bool                `gorm:"column:stock_applied;not null;default:false"`
	CouponRedeemed       bool                `gorm:"column:coupon_redeemed;not null;default:false"`
	BookkeepingSettledAt *time.Time          `gorm:"column:bookkeeping_settled_at"`
	Items                []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// NeedsReconciliation reports whether bookkeeping is still owed for the order.
func (o Order) NeedsReconciliation() bool {
	if o.Status == enums.OrderStatusCanceled {
		return false
	}
	if !o.StockApplied {
		return true
	}
	return o.CouponID != nil && !o.CouponRedeemed
}

// ReadyForReconciliation reports whether the reconciler may take over the
// order's bookkeeping: the checkout either settled it or has been gone longer
// than staleBefore.
func (o Order) ReadyForReconciliation(staleBefore time.Time) bool {
	if !o.NeedsReconciliation() {
		return false
	}
	return o.BookkeepingSettledAt != nil || o.CreatedAt.Before(staleBefore)
}
