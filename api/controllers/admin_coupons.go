package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bayancosmetic/storefront/api/responses"
	"github.com/bayancosmetic/storefront/api/validators"
	"github.com/bayancosmetic/storefront/internal/coupons"
	"github.com/bayancosmetic/storefront/pkg/db/models"
	"github.com/bayancosmetic/storefront/pkg/enums"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/logger"
)

const maxCouponCodeLen = 40

type couponResponse struct {
	ID            uuid.UUID          `json:"id"`
	Code          string             `json:"code"`
	DiscountType  enums.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	MinOrderCents int64              `json:"min_order_cents"`
	MaxUses       *int               `json:"max_uses,omitempty"`
	UsedCount     int                `json:"used_count"`
	ExpiresAt     *time.Time         `json:"expires_at,omitempty"`
	IsActive      bool               `json:"is_active"`
	CreatedAt     time.Time          `json:"created_at"`
}

func newCouponResponse(c *models.Coupon) couponResponse {
	return couponResponse{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
		MinOrderCents: c.MinOrderCents,
		MaxUses:       c.MaxUses,
		UsedCount:     c.UsedCount,
		ExpiresAt:     c.ExpiresAt,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
	}
}

func AdminCouponsList(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons"))
			return
		}
		out := make([]couponResponse, 0, len(rows))
		for i := range rows {
			out = append(out, newCouponResponse(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func AdminCouponsCreate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}
		var payload coupons.CreateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.Code = validators.SanitizeString(payload.Code, maxCouponCodeLen)
		coupon, err := svc.Create(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCouponResponse(coupon))
	}
}

func AdminCouponsUpdate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}
		id, err := URLUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload coupons.UpdateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.Code = validators.SanitizeOptional(payload.Code, maxCouponCodeLen)
		coupon, err := svc.Update(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCouponResponse(coupon))
	}
}

func AdminCouponsDelete(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}
		id, err := URLUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
