package coupons

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bayancosmetic/storefront/pkg/db/models"
	"github.com/bayancosmetic/storefront/pkg/enums"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
)

var maxPercentage = decimal.NewFromInt(100)

type CreateInput struct {
	Code          string             `json:"code" validate:"required,min=2,max=40"`
	DiscountType  enums.DiscountType `json:"discount_type" validate:"required"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	MinOrderCents int64              `json:"min_order_cents" validate:"gte=0"`
	MaxUses       *int               `json:"max_uses,omitempty" validate:"omitempty,gt=0"`
	ExpiresAt     *time.Time         `json:"expires_at,omitempty"`
	IsActive      *bool              `json:"is_active,omitempty"`
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Code          *string             `json:"code,omitempty" validate:"omitempty,min=2,max=40"`
	DiscountType  *enums.DiscountType `json:"discount_type,omitempty"`
	DiscountValue *decimal.Decimal    `json:"discount_value,omitempty"`
	MinOrderCents *int64              `json:"min_order_cents,omitempty" validate:"omitempty,gte=0"`
	MaxUses       *int                `json:"max_uses,omitempty" validate:"omitempty,gt=0"`
	ClearMaxUses  bool                `json:"clear_max_uses,omitempty"`
	ExpiresAt     *time.Time          `json:"expires_at,omitempty"`
	ClearExpiry   bool                `json:"clear_expires_at,omitempty"`
	IsActive      *bool               `json:"is_active,omitempty"`
}

func (in CreateInput) validate() error {
	if NormalizeCode(in.Code) == "" {
		return fieldError("code", "is required")
	}
	return validateValue(in.DiscountType, in.DiscountValue)
}

func (in UpdateInput) assignments(current *models.Coupon) (map[string]any, error) {
	kind := current.DiscountType
	value := current.DiscountValue
	updates := map[string]any{}

	if in.Code != nil {
		code := NormalizeCode(*in.Code)
		if code == "" {
			return nil, fieldError("code", "must not be empty")
		}
		updates["code"] = code
	}
	if in.DiscountType != nil {
		kind = *in.DiscountType
		updates["discount_type"] = kind
	}
	if in.DiscountValue != nil {
		value = *in.DiscountValue
		updates["discount_value"] = value
	}
	if in.DiscountType != nil || in.DiscountValue != nil {
		if err := validateValue(kind, value); err != nil {
			return nil, err
		}
	}
	if in.MinOrderCents != nil {
		updates["min_order_cents"] = *in.MinOrderCents
	}
	switch {
	case in.ClearMaxUses:
		updates["max_uses"] = nil
	case in.MaxUses != nil:
		updates["max_uses"] = *in.MaxUses
	}
	switch {
	case in.ClearExpiry:
		updates["expires_at"] = nil
	case in.ExpiresAt != nil:
		updates["expires_at"] = *in.ExpiresAt
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	return updates, nil
}

func validateValue(kind enums.DiscountType, value decimal.Decimal) error {
	if !kind.IsValid() {
		return fieldError("discount_type", "must be percentage or fixed")
	}
	if value.Sign() <= 0 {
		return fieldError("discount_value", "must be greater than zero")
	}
	if kind == enums.DiscountTypePercentage && value.GreaterThan(maxPercentage) {
		return fieldError("discount_value", "must not exceed 100 for percentage coupons")
	}
	return nil
}

func fieldError(field, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, field+" "+reason).
		WithDetails(map[string]string{field: reason})
}
