package coupons

import (
	"fmt"

	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/money"
)

// Rejection names why a coupon cannot be applied.
type Rejection string

const (
	RejectionNotFound          Rejection = "not_found"
	RejectionInactive          Rejection = "inactive"
	RejectionExpired           Rejection = "expired"
	RejectionUsageLimitReached Rejection = "usage_limit_reached"
	RejectionBelowMinimumOrder Rejection = "below_minimum_order"
)

// CouponError is returned (wrapped in a COUPON_REJECTED API error) when a code
// fails validation.
type CouponError struct {
	Code          string
	Reason        Rejection
	MinOrderCents int64
}

func (e *CouponError) Error() string {
	return fmt.Sprintf("coupon %q rejected: %s", e.Code, e.Reason)
}

// Message is the shopper-facing text.
func (e *CouponError) Message() string {
	switch e.Reason {
	case RejectionExpired:
		return "Code promo expiré"
	case RejectionUsageLimitReached:
		return "Ce code promo a atteint sa limite d'utilisation"
	case RejectionBelowMinimumOrder:
		return "Commande minimale: " + money.Format(e.MinOrderCents)
	default:
		return "Code promo invalide ou expiré"
	}
}

func reject(code string, reason Rejection) error {
	return rejectErr(&CouponError{Code: code, Reason: reason})
}

// Reject builds the API error for a coupon refused outside Apply, such as a
// redemption that lost the race for the last use.
func Reject(code string, reason Rejection) error {
	return reject(NormalizeCode(code), reason)
}

func rejectErr(ce *CouponError) error {
	details := map[string]any{"reason": string(ce.Reason)}
	if ce.Reason == RejectionBelowMinimumOrder {
		details["min_order_cents"] = ce.MinOrderCents
	}
	return pkgerrors.Wrap(pkgerrors.CodeCouponRejected, ce, ce.Message()).WithDetails(details)
}
