package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bayancosmetic/storefront/api/responses"
	"github.com/bayancosmetic/storefront/api/validators"
	"github.com/bayancosmetic/storefront/internal/products"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/logger"
)

type setStockRequest struct {
	Quantity *int `json:"stock_quantity" validate:"required,gte=0"`
}

type stockResponse struct {
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	StockQuantity int       `json:"stock_quantity"`
}

// AdminSetStock overwrites a product's stock level.
func AdminSetStock(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		adminID, err := AdminID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := URLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.SetStock(r.Context(), adminID, productID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stockResponse{
			ProductID:     product.ID,
			Name:          product.Name,
			StockQuantity: product.StockQuantity,
		})
	}
}
