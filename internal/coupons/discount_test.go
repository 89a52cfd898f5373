package coupons

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bayancosmetic/storefront/pkg/enums"
)

func TestDiscount(t *testing.T) {
	cases := []struct {
		name     string
		kind     enums.DiscountType
		value    string
		subtotal int64
		want     int64
	}{
		{"ten percent", enums.DiscountTypePercentage, "10", 20000, 2000},
		{"percent rounds half up", enums.DiscountTypePercentage, "15", 3333, 500},
		{"fractional percent", enums.DiscountTypePercentage, "12.5", 1000, 125},
		{"fixed dirhams", enums.DiscountTypeFixed, "20", 20000, 2000},
		{"fixed with centimes", enums.DiscountTypeFixed, "19.99", 20000, 1999},
		{"fixed clamped to subtotal", enums.DiscountTypeFixed, "300", 20000, 20000},
		{"empty cart", enums.DiscountTypeFixed, "20", 0, 0},
		{"unknown type", enums.DiscountType("bogo"), "20", 20000, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Discount(tc.kind, decimal.RequireFromString(tc.value), tc.subtotal)
			if got != tc.want {
				t.Fatalf("Discount(%s, %s, %d) = %d, want %d", tc.kind, tc.value, tc.subtotal, got, tc.want)
			}
		})
	}
}
