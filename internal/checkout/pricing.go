package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/bayancosmetic/storefront/internal/cart"
	"github.com/bayancosmetic/storefront/internal/coupons"
	"github.com/bayancosmetic/storefront/pkg/enums"
)

// CouponTerms is the part of an applied coupon pricing needs.
type CouponTerms struct {
	Code  string
	Type  enums.DiscountType
	Value decimal.Decimal
}

// PricingInput carries everything Price needs. CityCostCents is nil when the
// city has no configured cost.
type PricingInput struct {
	Lines                      []cart.Line
	CityCostCents              *int64
	FallbackShippingCents      int64
	FreeShippingThresholdCents int64
	Coupon                     *CouponTerms
}

// Quote is the priced cart. All amounts are centimes.
type Quote struct {
	SubtotalCents int64  `json:"subtotal_cents"`
	ShippingCents int64  `json:"shipping_cents"`
	DiscountCents int64  `json:"discount_cents"`
	TotalCents    int64  `json:"total_cents"`
	FreeShipping  bool   `json:"free_shipping"`
	CouponCode    string `json:"coupon_code,omitempty"`
}

// Price is pure. Shipping is free at or above the threshold (a threshold of
// zero or less disables free shipping); otherwise the largest positive
// per-product override wins, then the city cost, then the fallback.
func Price(in PricingInput) Quote {
	var q Quote
	for _, line := range in.Lines {
		q.SubtotalCents += line.SubtotalCents()
	}

	if in.FreeShippingThresholdCents > 0 && q.SubtotalCents >= in.FreeShippingThresholdCents {
		q.FreeShipping = true
	} else {
		q.ShippingCents = shippingFor(in)
	}

	if in.Coupon != nil {
		q.CouponCode = in.Coupon.Code
		q.DiscountCents = coupons.Discount(in.Coupon.Type, in.Coupon.Value, q.SubtotalCents)
	}
	q.TotalCents = q.SubtotalCents + q.ShippingCents - q.DiscountCents
	return q
}

func shippingFor(in PricingInput) int64 {
	var override int64
	for _, line := range in.Lines {
		if line.ShippingOverrideCents != nil && *line.ShippingOverrideCents > override {
			override = *line.ShippingOverrideCents
		}
	}
	if override > 0 {
		return override
	}
	if in.CityCostCents != nil {
		return *in.CityCostCents
	}
	return in.FallbackShippingCents
}
