package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bayancosmetic/storefront/api/controllers"
	cartcontrollers "github.com/bayancosmetic/storefront/api/controllers/cart"
	ordercontrollers "github.com/bayancosmetic/storefront/api/controllers/orders"
	"github.com/bayancosmetic/storefront/api/middleware"
	"github.com/bayancosmetic/storefront/internal/admin"
	"github.com/bayancosmetic/storefront/internal/cart"
	"github.com/bayancosmetic/storefront/internal/checkout"
	"github.com/bayancosmetic/storefront/internal/coupons"
	"github.com/bayancosmetic/storefront/internal/orders"
	"github.com/bayancosmetic/storefront/internal/products"
	"github.com/bayancosmetic/storefront/internal/settings"
	"github.com/bayancosmetic/storefront/internal/shipping"
	"github.com/bayancosmetic/storefront/pkg/auth/session"
	"github.com/bayancosmetic/storefront/pkg/config"
	"github.com/bayancosmetic/storefront/pkg/db"
	"github.com/bayancosmetic/storefront/pkg/enums"
	"github.com/bayancosmetic/storefront/pkg/logger"
	pkgredis "github.com/bayancosmetic/storefront/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	pkgredis.Pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies carries everything the router wires into handlers. A nil
// Redis disables rate limiting and idempotency replay.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker
	Metrics  http.Handler

	Admin    admin.Service
	Cart     cart.Service
	Checkout checkout.Service
	Coupons  coupons.Service
	Orders   orders.Service
	Products products.Service
	Settings settings.Service
	Shipping shipping.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/shipping/cities", controllers.ShippingCities(deps.Shipping, logg))
		r.Get("/settings", controllers.StorefrontSettings(deps.Settings, logg))
		r.Get("/orders/{orderNumber}", ordercontrollers.Track(deps.Orders, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{productId}", cartcontrollers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
				r.Post("/coupon", cartcontrollers.CartApplyCoupon(deps.Cart, logg))
				r.Delete("/coupon", cartcontrollers.CartRemoveCoupon(deps.Cart, logg))
				r.Post("/quote", controllers.CheckoutQuote(deps.Checkout, logg))
			})
			r.With(middleware.RateLimit(checkoutPolicy, deps.Redis, logg)).
				Post("/checkout", controllers.CheckoutPlaceOrder(deps.Checkout, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, deps.Redis, logg)).
			Post("/auth/login", controllers.AdminAuthLogin(deps.Admin, logg))
		r.Post("/auth/refresh", controllers.AdminAuthRefresh(deps.Admin, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireRole(logg, enums.AdminRoleAdmin, enums.AdminRoleStaff))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Post("/auth/logout", controllers.AdminAuthLogout(deps.Admin, logg))
			r.Get("/me", controllers.AdminMe(deps.Admin, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.AdminList(deps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.AdminDetail(deps.Orders, logg))
				r.Patch("/{orderId}", ordercontrollers.AdminUpdate(deps.Orders, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.AdminRoleAdmin))

				r.Route("/coupons", func(r chi.Router) {
					r.Get("/", controllers.AdminCouponsList(deps.Coupons, logg))
					r.Post("/", controllers.AdminCouponsCreate(deps.Coupons, logg))
					r.Patch("/{couponId}", controllers.AdminCouponsUpdate(deps.Coupons, logg))
					r.Delete("/{couponId}", controllers.AdminCouponsDelete(deps.Coupons, logg))
				})
				r.Route("/shipping", func(r chi.Router) {
					r.Get("/", controllers.AdminShippingList(deps.Shipping, logg))
					r.Post("/", controllers.AdminShippingCreate(deps.Shipping, logg))
					r.Patch("/{cityId}", controllers.AdminShippingUpdate(deps.Shipping, logg))
					r.Delete("/{cityId}", controllers.AdminShippingDelete(deps.Shipping, logg))
				})
				r.Route("/settings", func(r chi.Router) {
					r.Get("/", controllers.AdminSettingsList(deps.Settings, logg))
					r.Put("/{key}", controllers.AdminSettingsPut(deps.Settings, logg))
				})
				r.Put("/products/{productId}/stock", controllers.AdminSetStock(deps.Products, logg))
			})
		})
	})

	return r
}
