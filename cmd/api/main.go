package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bayancosmetic/storefront/api/routes"
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
	"github.com/bayancosmetic/storefront/pkg/logger"
	"github.com/bayancosmetic/storefront/pkg/metrics"
	"github.com/bayancosmetic/storefront/pkg/migrate"
	"github.com/bayancosmetic/storefront/pkg/outbox"
	"github.com/bayancosmetic/storefront/pkg/redis"
	"github.com/bayancosmetic/storefront/pkg/tracing"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	shutdownTracing := tracing.Install(cfg.Tracing, "storefront-api", cfg.App.Env)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logg.Error(context.Background(), "error stopping tracer provider", err)
		}
	}()

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := buildDependencies(cfg, logg, dbClient, redisClient, sessionManager, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"cart_store": cfg.Cart.Store,
		"checkout":   cfg.Checkout.Mode,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(routes.NewRouter(deps), "storefront-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

func buildDependencies(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, sessions *session.Manager, registry *prometheus.Registry) (routes.Dependencies, error) {
	gdb := dbClient.DB()
	productRepo := products.NewRepository(gdb)
	couponRepo := coupons.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)

	couponSvc, err := coupons.NewService(couponRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}
	shippingSvc, err := shipping.NewService(shipping.NewRepository(gdb))
	if err != nil {
		return routes.Dependencies{}, err
	}
	settingsSvc, err := settings.NewService(settings.NewRepository(gdb), cfg.Checkout, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	productSvc, err := products.NewService(dbClient, productRepo, outboxSvc)
	if err != nil {
		return routes.Dependencies{}, err
	}
	orderSvc, err := orders.NewService(dbClient, orderRepo, outboxSvc, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}

	var store cart.SessionStore = cart.NewMemoryStore()
	if cfg.Cart.UsesRedis() {
		redisStore, err := cart.NewRedisStore(redisClient, cfg.Cart.TTL, logg)
		if err != nil {
			return routes.Dependencies{}, err
		}
		store = redisStore
	}
	cartSvc, err := cart.NewService(store, productRepo, couponSvc, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}

	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Tx:          dbClient,
		Carts:       cartSvc,
		Coupons:     couponSvc,
		Shipping:    shippingSvc,
		Settings:    settingsSvc,
		Stock:       checkout.NewStockChecker(productRepo, cfg.Checkout.StockCheckConcurrency),
		Writer:      checkout.NewOrderWriter(orderRepo),
		Decrementer: checkout.NewStockDecrementer(productRepo),
		CouponUsage: checkout.NewCouponUsageUpdater(couponRepo),
		Orders:      orderRepo,
		Outbox:      outboxSvc,
		Metrics:     metrics.NewCheckoutMetrics(registry),
		Config:      cfg.Checkout,
		Logger:      logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	adminSvc, err := admin.NewService(admin.ServiceParams{
		Repo:           admin.NewRepository(gdb),
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Sessions: sessions,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Admin:    adminSvc,
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Coupons:  couponSvc,
		Orders:   orderSvc,
		Products: productSvc,
		Settings: settingsSvc,
		Shipping: shippingSvc,
	}, nil
}
