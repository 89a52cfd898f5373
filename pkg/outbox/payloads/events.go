package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/bayancosmetic/storefront/pkg/enums"
)

// OrderPlacedLine is one purchased line inside OrderPlacedEvent.
type OrderPlacedLine struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

// OrderPlacedEvent is emitted once per confirmed checkout.
type OrderPlacedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	CustomerCity   string            `json:"customer_city"`
	SubtotalCents  int64             `json:"subtotal_cents"`
	ShippingCents  int64             `json:"shipping_cents"`
	DiscountCents  int64             `json:"discount_cents"`
	TotalCents     int64             `json:"total_cents"`
	CouponCode     *string           `json:"coupon_code,omitempty"`
	CheckoutMode   string            `json:"checkout_mode"`
	StockApplied   bool              `json:"stock_applied"`
	CouponRedeemed bool              `json:"coupon_redeemed"`
	Lines          []OrderPlacedLine `json:"lines"`
	PlacedAt       time.Time         `json:"placed_at"`
}

// OrderStatusChangedEvent records a back-office status transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// OrderReconciledEvent reports bookkeeping applied after the fact by the cron worker.
type OrderReconciledEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	StockApplied   bool      `json:"stock_applied"`
	CouponRedeemed bool      `json:"coupon_redeemed"`
	ReconciledAt   time.Time `json:"reconciled_at"`
}

// StockAdjustedEvent records a manual stock overwrite.
type StockAdjustedEvent struct {
	ProductID     uuid.UUID `json:"product_id"`
	PreviousStock int       `json:"previous_stock"`
	StockQuantity int       `json:"stock_quantity"`
}
