package middleware

import (
	"net/http"

	"github.com/bayancosmetic/storefront/api/responses"
	"github.com/bayancosmetic/storefront/internal/cart"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/logger"
)

const CartSessionHeader = "X-Cart-Session"

// CartSession requires the X-Cart-Session header and tags the request with it.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := cart.NormalizeSessionID(r.Header.Get(CartSessionHeader))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "missing or invalid X-Cart-Session header").
					WithDetails(map[string]any{"header": CartSessionHeader}))
				return
			}
			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
