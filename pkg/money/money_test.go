package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPercentRoundsHalfUp(t *testing.T) {
	cases := []struct {
		amount int64
		pct    string
		want   int64
	}{
		{amount: 20000, pct: "10", want: 2000},
		{amount: 1005, pct: "10", want: 101},
		{amount: 1004, pct: "10", want: 100},
		{amount: 999, pct: "12.5", want: 125},
		{amount: 0, pct: "10", want: 0},
		{amount: 5000, pct: "0", want: 0},
	}
	for _, tc := range cases {
		got := Percent(tc.amount, decimal.RequireFromString(tc.pct))
		if got != tc.want {
			t.Fatalf("Percent(%d, %s) = %d, want %d", tc.amount, tc.pct, got, tc.want)
		}
	}
}

func TestFromMADAndFormat(t *testing.T) {
	if got := FromMAD(decimal.RequireFromString("49.995")); got != 5000 {
		t.Fatalf("expected 5000, got %d", got)
	}
	if got := FromMAD(decimal.NewFromInt(30)); got != 3000 {
		t.Fatalf("expected 3000, got %d", got)
	}
	if got := Format(23000); got != "230.00 MAD" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := ToMAD(2050).String(); got != "20.5" {
		t.Fatalf("unexpected ToMAD %q", got)
	}
}
