package controllers

import (
	"net/http"

	"github.com/bayancosmetic/storefront/api/middleware"
	"github.com/bayancosmetic/storefront/api/responses"
	"github.com/bayancosmetic/storefront/api/validators"
	checkoutsvc "github.com/bayancosmetic/storefront/internal/checkout"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/logger"
)

type quoteRequest struct {
	City string `json:"city" validate:"max=80"`
}

// CheckoutQuote prices the session cart for a destination city.
func CheckoutQuote(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), middleware.CartSessionFromContext(r.Context()), payload.City)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CheckoutPlaceOrder turns the session cart into a cash-on-delivery order.
// Field rules are enforced by the checkout validator so the first invalid
// field is reported, not every one.
func CheckoutPlaceOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutsvc.CustomerInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		confirmation, err := svc.PlaceOrder(r.Context(), middleware.CartSessionFromContext(r.Context()), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, confirmation)
	}
}
