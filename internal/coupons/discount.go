package coupons

import (
	"github.com/shopspring/decimal"

	"github.com/bayancosmetic/storefront/pkg/enums"
	"github.com/bayancosmetic/storefront/pkg/money"
)

// Discount computes the centimes taken off subtotal. Percentages round half-up
// to the centime; fixed values are MAD amounts. The result never exceeds the
// subtotal.
func Discount(kind enums.DiscountType, value decimal.Decimal, subtotal int64) int64 {
	if subtotal <= 0 || value.Sign() <= 0 {
		return 0
	}
	var amount int64
	switch kind {
	case enums.DiscountTypePercentage:
		amount = money.Percent(subtotal, value)
	case enums.DiscountTypeFixed:
		amount = money.FromMAD(value)
	default:
		return 0
	}
	if amount > subtotal {
		return subtotal
	}
	return amount
}
