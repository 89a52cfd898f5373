// Package money handles storefront amounts, which are int64 centimes (1 MAD = 100 centimes).
package money

import (
	"github.com/shopspring/decimal"
)

const centimesPerUnit = 100

var hundred = decimal.NewFromInt(centimesPerUnit)

// FromMAD converts a dirham amount to centimes, rounding half away from zero.
func FromMAD(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// ToMAD converts centimes to a dirham decimal.
func ToMAD(centimes int64) decimal.Decimal {
	return decimal.New(centimes, -2)
}

// Percent returns pct percent of amount, rounded half-up to the centime.
func Percent(amount int64, pct decimal.Decimal) int64 {
	if amount <= 0 || pct.Sign() <= 0 {
		return 0
	}
	return decimal.NewFromInt(amount).Mul(pct).Div(hundred).Round(0).IntPart()
}

// Format renders centimes for humans, e.g. "230.00 MAD".
func Format(centimes int64) string {
	return ToMAD(centimes).StringFixed(2) + " MAD"
}
