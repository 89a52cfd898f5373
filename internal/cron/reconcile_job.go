package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/bayancosmetic/storefront/internal/coupons"
	"github.com/bayancosmetic/storefront/internal/orders"
	"github.com/bayancosmetic/storefront/internal/products"
	"github.com/bayancosmetic/storefront/pkg/db/models"
	"github.com/bayancosmetic/storefront/pkg/enums"
	"github.com/bayancosmetic/storefront/pkg/logger"
	"github.com/bayancosmetic/storefront/pkg/outbox"
	"github.com/bayancosmetic/storefront/pkg/outbox/payloads"
)

const (
	defaultReconcileLimit = 100
	defaultReconcileGrace = 10 * time.Minute
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ReconcileJobParams configure the bookkeeping reconciliation job.
type ReconcileJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Orders   orders.Repository
	Products products.Repository
	Coupons  coupons.Repository
	Outbox   outboxEmitter
	Limit    int
	// Grace is how long an unsettled best-effort checkout is left alone
	// before the job assumes it died.
	Grace    time.Duration
}

// NewReconcileJob builds the job that applies stock and coupon bookkeeping
// left undone by best-effort checkouts.
func NewReconcileJob(params ReconcileJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.DB == nil:
		return nil, fmt.Errorf("db runner required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Products == nil:
		return nil, fmt.Errorf("products repository required")
	case params.Coupons == nil:
		return nil, fmt.Errorf("coupons repository required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox service required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultReconcileGrace
	}
	return &reconcileJob{
		logg:     params.Logger,
		db:       params.DB,
		orders:   params.Orders,
		products: params.Products,
		coupons:  params.Coupons,
		outbox:   params.Outbox,
		limit:    limit,
		grace:    grace,
		now:      time.Now,
	}, nil
}

type reconcileJob struct {
	logg     *logger.Logger
	db       txRunner
	orders   orders.Repository
	products products.Repository
	coupons  coupons.Repository
	outbox   outboxEmitter
	limit    int
	grace    time.Duration
	now      func() time.Time
}

func (j *reconcileJob) Name() string { return "order-reconcile" }

// Run handles each order in its own transaction so one bad order does not
// hold back the rest of the batch.
func (j *reconcileJob) Run(ctx context.Context) error {
	staleBefore := j.now().UTC().Add(-j.grace)
	pending, err := j.orders.ListNeedingReconciliation(ctx, staleBefore, j.limit)
	if err != nil {
		return fmt.Errorf("query orders needing reconciliation: %w", err)
	}
	var errs error
	reconciled := 0
	for _, order := range pending {
		done, err := j.reconcile(ctx, order.ID, staleBefore)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.OrderNumber, err))
			continue
		}
		if done {
			reconciled++
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(pending),
		"reconciled": reconciled,
	})
	j.logg.Info(logCtx, "order reconciliation loop complete")
	return errs
}

func (j *reconcileJob) reconcile(ctx context.Context, orderID uuid.UUID, staleBefore time.Time) (bool, error) {
	done := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := j.orders.WithTx(tx)
		order, err := orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.ReadyForReconciliation(staleBefore) {
			return nil
		}
		logCtx := j.logg.WithOrderNumber(ctx, order.OrderNumber)

		for _, item := range order.Items {
			if item.StockApplied {
				continue
			}
			if err := j.applyStock(logCtx, tx, item); err != nil {
				return err
			}
			if err := orderRepo.MarkItemStockApplied(ctx, item.ID); err != nil {
				return err
			}
		}

		couponRedeemed := order.CouponRedeemed
		if order.CouponID != nil && !couponRedeemed {
			if err := j.coupons.WithTx(tx).ForceIncrement(ctx, *order.CouponID); err != nil {
				return err
			}
			couponRedeemed = true
		}

		if err := orderRepo.SettleBookkeeping(ctx, order.ID, true, couponRedeemed); err != nil {
			return err
		}
		now := j.now().UTC()
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderReconciled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			OccurredAt:    now,
			Data: payloads.OrderReconciledEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				StockApplied:   true,
				CouponRedeemed: couponRedeemed,
				ReconciledAt:   now,
			},
		}
		if err := j.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		done = true
		return nil
	})
	return done, err
}

// applyStock takes the line's quantity off the product. When the product no
// longer holds enough units it is floored at zero, as the sale already
// happened.
func (j *reconcileJob) applyStock(ctx context.Context, tx *gorm.DB, item models.OrderItem) error {
	repo := j.products.WithTx(tx)
	ok, err := repo.DecrementIfAvailable(ctx, item.ProductID, item.Quantity)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	product, err := repo.FindByID(ctx, item.ProductID)
	if err != nil {
		return err
	}
	warnCtx := j.logg.WithFields(ctx, map[string]any{
		"product_id": item.ProductID.String(),
		"available":  product.StockQuantity,
		"quantity":   item.Quantity,
	})
	j.logg.Warn(warnCtx, "reconciled line exceeds stock; flooring at zero")
	return repo.SetStock(ctx, item.ProductID, 0)
}
