package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bayancosmetic/storefront/pkg/db/models"
	"github.com/bayancosmetic/storefront/pkg/enums"
)

// ListFilters narrows the back-office order listing. Text filters match substrings, case-insensitively.
type ListFilters struct {
	Status     *enums.OrderStatus
	Search     string
	City       string
	CouponCode string
	From       *time.Time
	To         *time.Time
}

// UpdateInput carries the fields an admin may change on an order.
type UpdateInput struct {
	Status *enums.OrderStatus
	Notes  *string
}

// LineView is one order line as shown to customers and admins.
type LineView struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	SubtotalCents  int64     `json:"subtotal_cents"`
	SizeLabel      *string   `json:"size_label,omitempty"`
}

// TrackingView is the public order-tracking response. Customer contact
// details other than the name and city are left out.
type TrackingView struct {
	OrderNumber   string            `json:"order_number"`
	Status        enums.OrderStatus `json:"status"`
	CustomerName  string            `json:"customer_name"`
	CustomerCity  string            `json:"customer_city"`
	SubtotalCents int64             `json:"subtotal_cents"`
	ShippingCents int64             `json:"shipping_cents"`
	DiscountCents int64             `json:"discount_cents"`
	TotalCents    int64             `json:"total_cents"`
	CouponCode    *string           `json:"coupon_code,omitempty"`
	PaymentMethod string            `json:"payment_method"`
	Lines         []LineView        `json:"lines"`
	CreatedAt     time.Time         `json:"created_at"`
}

// OrderView is the back-office representation of an order.
type OrderView struct {
	ID              uuid.UUID         `json:"id"`
	OrderNumber     string            `json:"order_number"`
	Status          enums.OrderStatus `json:"status"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerAddress string            `json:"customer_address"`
	CustomerCity    string            `json:"customer_city"`
	SubtotalCents   int64             `json:"subtotal_cents"`
	ShippingCents   int64             `json:"shipping_cents"`
	DiscountCents   int64             `json:"discount_cents"`
	TotalCents      int64             `json:"total_cents"`
	CouponCode      *string           `json:"coupon_code,omitempty"`
	PaymentMethod   string            `json:"payment_method"`
	Notes           *string           `json:"notes,omitempty"`
	StockApplied    bool              `json:"stock_applied"`
	CouponRedeemed  bool              `json:"coupon_redeemed"`
	Lines           []LineView        `json:"lines,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func lineViews(items []models.OrderItem) []LineView {
	out := make([]LineView, 0, len(items))
	for _, item := range items {
		out = append(out, LineView{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			SubtotalCents:  item.SubtotalCents,
			SizeLabel:      item.SizeLabel,
		})
	}
	return out
}

func NewTrackingView(order *models.Order) TrackingView {
	return TrackingView{
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		CustomerName:  order.CustomerName,
		CustomerCity:  order.CustomerCity,
		SubtotalCents: order.SubtotalCents,
		ShippingCents: order.ShippingCents,
		DiscountCents: order.DiscountCents,
		TotalCents:    order.TotalCents,
		CouponCode:    order.CouponCode,
		PaymentMethod: string(order.PaymentMethod),
		Lines:         lineViews(order.Items),
		CreatedAt:     order.CreatedAt,
	}
}

func NewOrderView(order *models.Order) OrderView {
	view := OrderView{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		CustomerAddress: order.CustomerAddress,
		CustomerCity:    order.CustomerCity,
		SubtotalCents:   order.SubtotalCents,
		ShippingCents:   order.ShippingCents,
		DiscountCents:   order.DiscountCents,
		TotalCents:      order.TotalCents,
		CouponCode:      order.CouponCode,
		PaymentMethod:   string(order.PaymentMethod),
		Notes:           order.Notes,
		StockApplied:    order.StockApplied,
		CouponRedeemed:  order.CouponRedeemed,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if len(order.Items) > 0 {
		view.Lines = lineViews(order.Items)
	}
	return view
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	return &trimmed
}
