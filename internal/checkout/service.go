package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bayancosmetic/storefront/internal/cart"
	"github.com/bayancosmetic/storefront/internal/coupons"
	"github.com/bayancosmetic/storefront/internal/orders"
	"github.com/bayancosmetic/storefront/internal/settings"
	"github.com/bayancosmetic/storefront/pkg/config"
	"github.com/bayancosmetic/storefront/pkg/db/models"
	"github.com/bayancosmetic/storefront/pkg/enums"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/logger"
	"github.com/bayancosmetic/storefront/pkg/metrics"
	"github.com/bayancosmetic/storefront/pkg/outbox"
	"github.com/bayancosmetic/storefront/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type cartStore interface {
	Load(ctx context.Context, sessionID string) (*cart.Cart, error)
	Save(ctx context.Context, sessionID string, c *cart.Cart) error
	Clear(ctx context.Context, sessionID string) error
}

type couponApplier interface {
	Apply(ctx context.Context, code string, subtotalCents int64) (*coupons.Applied, error)
}

type shippingCoster interface {
	CostFor(ctx context.Context, city string) (int64, bool, error)
}

type storefrontSettings interface {
	Storefront(ctx context.Context) settings.Storefront
}

type checkoutMetrics interface {
	ObserveAttempt(outcome string, elapsed time.Duration)
	IncBookkeepingFailure(step string)
}

// Service prices session carts and turns them into orders.
type Service interface {
	Quote(ctx context.Context, sessionID, city string) (*QuoteView, error)
	PlaceOrder(ctx context.Context, sessionID string, input CustomerInput) (*Confirmation, error)
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Tx          txRunner
	Carts       cartStore
	Coupons     couponApplier
	Shipping    shippingCoster
	Settings    storefrontSettings
	Stock       *StockChecker
	Writer      *OrderWriter
	Decrementer *StockDecrementer
	CouponUsage *CouponUsageUpdater
	Orders      orders.Repository
	Outbox      outboxPublisher
	Metrics     checkoutMetrics
	Config      config.CheckoutConfig
	Logger      *logger.Logger
}

// QuoteView is the priced cart for a destination city.
type QuoteView struct {
	Quote
	City string `json:"city"`
	// CouponNotice is set when the applied coupon no longer qualifies and was
	// dropped from the cart.
	CouponNotice string `json:"coupon_notice,omitempty"`
}

// Confirmation is returned once the order is committed.
type Confirmation struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	Status         enums.OrderStatus `json:"status"`
	PaymentMethod  string            `json:"payment_method"`
	CustomerName   string            `json:"customer_name"`
	CustomerCity   string            `json:"customer_city"`
	SubtotalCents  int64             `json:"subtotal_cents"`
	ShippingCents  int64             `json:"shipping_cents"`
	DiscountCents  int64             `json:"discount_cents"`
	TotalCents     int64             `json:"total_cents"`
	CouponCode     *string           `json:"coupon_code,omitempty"`
	Lines          []orders.LineView `json:"lines"`
	StockApplied   bool              `json:"stock_applied"`
	CouponRedeemed bool              `json:"coupon_redeemed"`
	CreatedAt      time.Time         `json:"created_at"`
	Trail          []State           `json:"-"`
}

type service struct {
	tx          txRunner
	carts       cartStore
	coupons     couponApplier
	shipping    shippingCoster
	settings    storefrontSettings
	stock       *StockChecker
	writer      *OrderWriter
	decrementer *StockDecrementer
	couponUsage *CouponUsageUpdater
	orders      orders.Repository
	outbox      outboxPublisher
	metrics     checkoutMetrics
	cfg         config.CheckoutConfig
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case p.Carts == nil:
		return nil, fmt.Errorf("cart store required")
	case p.Coupons == nil:
		return nil, fmt.Errorf("coupon service required")
	case p.Shipping == nil:
		return nil, fmt.Errorf("shipping service required")
	case p.Settings == nil:
		return nil, fmt.Errorf("settings service required")
	case p.Stock == nil || p.Writer == nil || p.Decrementer == nil || p.CouponUsage == nil:
		return nil, fmt.Errorf("checkout components required")
	case p.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case p.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	m := p.Metrics
	if m == nil {
		m = metrics.NewCheckoutMetrics(nil)
	}
	return &service{
		tx:          p.Tx,
		carts:       p.Carts,
		coupons:     p.Coupons,
		shipping:    p.Shipping,
		settings:    p.Settings,
		stock:       p.Stock,
		writer:      p.Writer,
		decrementer: p.Decrementer,
		couponUsage: p.CouponUsage,
		orders:      p.Orders,
		outbox:      p.Outbox,
		metrics:     m,
		cfg:         p.Config,
		logg:        p.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Quote prices the session cart. An unknown city is priced with the fallback
// shipping cost; a coupon that stopped qualifying is removed from the cart.
func (s *service) Quote(ctx context.Context, sessionID, city string) (*QuoteView, error) {
	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, validationFailed("cart", "empty", "Votre panier est vide")
	}
	city = SanitizeText(city)

	var cityCost *int64
	if city != "" {
		cost, ok, err := s.shipping.CostFor(ctx, city)
		if err != nil {
			return nil, err
		}
		if ok {
			cityCost = &cost
		}
	}

	view := &QuoteView{City: city}
	terms, err := s.couponTerms(ctx, c)
	if err != nil {
		var ce *coupons.CouponError
		if !errors.As(err, &ce) {
			return nil, err
		}
		view.CouponNotice = ce.Message()
		if err := s.dropCoupon(ctx, sessionID, c); err != nil {
			return nil, err
		}
	}

	view.Quote = Price(s.pricingInput(ctx, c.Lines(), cityCost, terms))
	return view, nil
}

// PlaceOrder runs one checkout attempt for the session cart.
func (s *service) PlaceOrder(ctx context.Context, sessionID string, input CustomerInput) (*Confirmation, error) {
	started := time.Now()
	ctx = s.logg.WithSessionID(ctx, sessionID)
	attempt := NewAttempt()

	confirmation, err := s.placeOrder(ctx, sessionID, input, attempt)
	if err != nil {
		reason := failureReason(err)
		_ = attempt.Fail(reason)
		s.metrics.ObserveAttempt(outcomeFor(reason), time.Since(started))
		fctx := s.logg.WithFields(ctx, map[string]any{
			"failure_reason": string(reason),
			"trail":          attempt.Visited(),
		})
		if reason == FailurePersistence {
			s.logg.Error(fctx, "checkout.failed", err)
		} else {
			s.logg.Warn(fctx, "checkout.rejected")
		}
		_ = attempt.Reset()
		return nil, err
	}

	s.metrics.ObserveAttempt(metrics.OutcomeConfirmed, time.Since(started))
	confirmation.Trail = attempt.Visited()
	return confirmation, nil
}

func (s *service) placeOrder(ctx context.Context, sessionID string, input CustomerInput, attempt *Attempt) (*Confirmation, error) {
	if err := attempt.Advance(StateValidating); err != nil {
		return nil, err
	}
	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, validationFailed("cart", "empty", "Votre panier est vide")
	}
	customer, err := ValidateCustomer(input)
	if err != nil {
		return nil, err
	}
	cityCost, ok, err := s.shipping.CostFor(ctx, customer.City)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, validationFailed("customer_city", "unknown_city", "Veuillez sélectionner une ville de livraison valide")
	}
	lines := c.Lines()
	applied, err := s.revalidateCoupon(ctx, sessionID, c)
	if err != nil {
		return nil, err
	}

	if err := attempt.Advance(StateCheckingStock); err != nil {
		return nil, err
	}
	if err := s.stock.Check(ctx, lines); err != nil {
		return nil, err
	}

	var terms *CouponTerms
	if applied != nil {
		terms = &CouponTerms{Code: applied.Code, Type: applied.DiscountType, Value: applied.DiscountValue}
	}
	quote := Price(s.pricingInput(ctx, lines, &cityCost, terms))
	draft := buildDraft(customer, lines, quote, applied)

	var order *models.Order
	if s.cfg.IsStrict() {
		order, err = s.placeStrict(ctx, attempt, draft, applied)
	} else {
		order, err = s.placeBestEffort(ctx, attempt, draft, applied)
	}
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)

	if err := attempt.Advance(StateCartCleared); err != nil {
		return nil, err
	}
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logg.Error(ctx, "checkout.cart_clear_failed", err)
	}
	if err := attempt.Advance(StateConfirmed); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"total_cents":     order.TotalCents,
		"stock_applied":   order.StockApplied,
		"coupon_redeemed": order.CouponRedeemed,
		"checkout_mode":   s.mode(),
	}), "checkout.confirmed")
	return newConfirmation(order), nil
}

// placeStrict commits the order, its stock movements, the coupon redemption
// and the order_placed event together or not at all.
func (s *service) placeStrict(ctx context.Context, attempt *Attempt, draft *models.Order, applied *coupons.Applied) (*models.Order, error) {
	draft.StockApplied = true
	for i := range draft.Items {
		draft.Items[i].StockApplied = true
	}
	draft.CouponRedeemed = applied != nil
	settledAt := s.now()
	draft.BookkeepingSettledAt = &settledAt

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := attempt.Advance(StateWritingOrder); err != nil {
			return err
		}
		written, err := s.writer.Write(ctx, tx, draft)
		if err != nil {
			return err
		}
		if err := attempt.Advance(StateDecrementingStock); err != nil {
			return err
		}
		if err := s.decrementer.DecrementStrict(ctx, tx, written.Items); err != nil {
			return err
		}
		if applied != nil {
			if err := attempt.Advance(StateUpdatingCoupon); err != nil {
				return err
			}
			if err := s.couponUsage.RedeemStrict(ctx, tx, applied.CouponID, applied.Code); err != nil {
				return err
			}
		}
		if err := s.outbox.Emit(ctx, tx, s.placedEvent(written)); err != nil {
			return persistenceFailed(err)
		}
		order = written
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return nil, persistenceFailed(err)
		}
		return nil, err
	}
	return order, nil
}

// placeBestEffort saves the order first, then applies stock and coupon
// bookkeeping line by line. Bookkeeping failures are logged and counted and
// leave the matching flag false. The order is only handed to the
// reconciliation job once SettleBookkeeping stamps it.
func (s *service) placeBestEffort(ctx context.Context, attempt *Attempt, draft *models.Order, applied *coupons.Applied) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := attempt.Advance(StateWritingOrder); err != nil {
			return err
		}
		written, err := s.writer.Write(ctx, tx, draft)
		if err != nil {
			return err
		}
		order = written
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return nil, persistenceFailed(err)
		}
		return nil, err
	}
	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)

	if err := attempt.Advance(StateDecrementingStock); err != nil {
		return nil, err
	}
	stockApplied := true
	markItem := func(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) error {
		return s.orders.WithTx(tx).MarkItemStockApplied(ctx, itemID)
	}
	for _, outcome := range s.decrementer.DecrementBestEffort(ctx, s.tx, order.Items, markItem) {
		if outcome.Err != nil {
			stockApplied = false
			s.metrics.IncBookkeepingFailure(metrics.StepStockDecrement)
			s.logg.Error(s.logg.WithField(ctx, "product_id", outcome.ProductID.String()), "checkout.stock_decrement_failed", outcome.Err)
			continue
		}
		for i := range order.Items {
			if order.Items[i].ID == outcome.ItemID {
				order.Items[i].StockApplied = true
			}
		}
	}

	couponRedeemed := false
	if applied != nil {
		if err := attempt.Advance(StateUpdatingCoupon); err != nil {
			return nil, err
		}
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.couponUsage.RedeemBestEffort(ctx, tx, applied.CouponID); err != nil {
				return err
			}
			return s.orders.WithTx(tx).MarkCouponRedeemed(ctx, order.ID)
		})
		if err != nil {
			s.metrics.IncBookkeepingFailure(metrics.StepCouponUsage)
			s.logg.Error(s.logg.WithField(ctx, "coupon_code", applied.Code), "checkout.coupon_usage_failed", err)
		} else {
			couponRedeemed = true
		}
	}

	if err := s.orders.SettleBookkeeping(ctx, order.ID, stockApplied, couponRedeemed); err != nil {
		s.logg.Error(ctx, "checkout.settle_bookkeeping_failed", err)
	} else {
		order.StockApplied = stockApplied
		order.CouponRedeemed = couponRedeemed
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, s.placedEvent(order))
	})
	if err != nil {
		s.metrics.IncBookkeepingFailure(metrics.StepOutbox)
		s.logg.Error(ctx, "checkout.outbox_emit_failed", err)
	}
	return order, nil
}

// revalidateCoupon re-applies the cart's coupon against the current subtotal.
// A rejected coupon is removed from the cart before the rejection is returned.
func (s *service) revalidateCoupon(ctx context.Context, sessionID string, c *cart.Cart) (*coupons.Applied, error) {
	if _, ok := c.AppliedCoupon(); !ok {
		return nil, nil
	}
	applied, err := s.applyCartCoupon(ctx, c)
	if err == nil {
		return applied, nil
	}
	var ce *coupons.CouponError
	if errors.As(err, &ce) {
		if dropErr := s.dropCoupon(ctx, sessionID, c); dropErr != nil {
			s.logg.Error(ctx, "checkout.coupon_drop_failed", dropErr)
		}
	}
	return nil, err
}

func (s *service) couponTerms(ctx context.Context, c *cart.Cart) (*CouponTerms, error) {
	if _, ok := c.AppliedCoupon(); !ok {
		return nil, nil
	}
	applied, err := s.applyCartCoupon(ctx, c)
	if err != nil {
		return nil, err
	}
	return &CouponTerms{Code: applied.Code, Type: applied.DiscountType, Value: applied.DiscountValue}, nil
}

func (s *service) applyCartCoupon(ctx context.Context, c *cart.Cart) (*coupons.Applied, error) {
	current, _ := c.AppliedCoupon()
	applied, err := s.coupons.Apply(ctx, current.Code, c.Subtotal())
	if err != nil {
		return nil, err
	}
	if applied.CouponID != current.CouponID {
		// The code was deleted and recreated; the cart keeps pointing at the live row.
		c.ApplyCoupon(cart.AppliedCoupon{CouponID: applied.CouponID, Code: applied.Code})
	}
	return applied, nil
}

func (s *service) dropCoupon(ctx context.Context, sessionID string, c *cart.Cart) error {
	c.ClearCoupon()
	return s.carts.Save(ctx, sessionID, c)
}

func (s *service) pricingInput(ctx context.Context, lines []cart.Line, cityCost *int64, terms *CouponTerms) PricingInput {
	storefront := s.settings.Storefront(ctx)
	return PricingInput{
		Lines:                      lines,
		CityCostCents:              cityCost,
		FallbackShippingCents:      storefront.DefaultShippingCents,
		FreeShippingThresholdCents: storefront.FreeShippingThresholdCents,
		Coupon:                     terms,
	}
}

func (s *service) placedEvent(order *models.Order) outbox.DomainEvent {
	lines := make([]payloads.OrderPlacedLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderPlacedLine{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	placedAt := order.CreatedAt
	if placedAt.IsZero() {
		placedAt = s.now()
	}
	return outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderPlacedEvent{
			OrderID:        order.ID,
			OrderNumber:    order.OrderNumber,
			CustomerCity:   order.CustomerCity,
			SubtotalCents:  order.SubtotalCents,
			ShippingCents:  order.ShippingCents,
			DiscountCents:  order.DiscountCents,
			TotalCents:     order.TotalCents,
			CouponCode:     order.CouponCode,
			CheckoutMode:   s.mode(),
			StockApplied:   order.StockApplied,
			CouponRedeemed: order.CouponRedeemed,
			Lines:          lines,
			PlacedAt:       placedAt,
		},
		OccurredAt: placedAt,
	}
}

func (s *service) mode() string {
	if s.cfg.IsStrict() {
		return config.CheckoutModeStrict
	}
	return config.CheckoutModeBestEffort
}

func buildDraft(customer CustomerInfo, lines []cart.Line, quote Quote, applied *coupons.Applied) *models.Order {
	order := &models.Order{
		CustomerName:    customer.Name,
		CustomerPhone:   customer.Phone,
		CustomerAddress: customer.Address,
		CustomerCity:    customer.City,
		SubtotalCents:   quote.SubtotalCents,
		ShippingCents:   quote.ShippingCents,
		DiscountCents:   quote.DiscountCents,
		TotalCents:      quote.TotalCents,
		Status:          enums.OrderStatusPending,
		PaymentMethod:   enums.PaymentMethodCOD,
		Items:           make([]models.OrderItem, 0, len(lines)),
	}
	if customer.Notes != "" {
		notes := customer.Notes
		order.Notes = &notes
	}
	if applied != nil {
		id := applied.CouponID
		code := applied.Code
		order.CouponID = &id
		order.CouponCode = &code
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:      line.ProductID,
			ProductName:    line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			SubtotalCents:  line.SubtotalCents(),
			SizeLabel:      sizeLabel(line.SizeLabel),
		})
	}
	return order
}

func sizeLabel(label string) *string {
	if label == "" {
		return nil
	}
	return &label
}

func newConfirmation(order *models.Order) *Confirmation {
	view := orders.NewOrderView(order)
	return &Confirmation{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		PaymentMethod:  string(order.PaymentMethod),
		CustomerName:   order.CustomerName,
		CustomerCity:   order.CustomerCity,
		SubtotalCents:  order.SubtotalCents,
		ShippingCents:  order.ShippingCents,
		DiscountCents:  order.DiscountCents,
		TotalCents:     order.TotalCents,
		CouponCode:     order.CouponCode,
		Lines:          view.Lines,
		StockApplied:   order.StockApplied,
		CouponRedeemed: order.CouponRedeemed,
		CreatedAt:      order.CreatedAt,
	}
}

func failureReason(err error) FailureReason {
	var ce *coupons.CouponError
	switch {
	case errors.As(err, &ce):
		return FailureCoupon
	case pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock):
		return FailureStock
	case pkgerrors.HasCode(err, pkgerrors.CodeValidation):
		return FailureValidation
	}
	return FailurePersistence
}

func outcomeFor(reason FailureReason) string {
	switch reason {
	case FailureValidation:
		return metrics.OutcomeValidationFailed
	case FailureStock:
		return metrics.OutcomeInsufficientStock
	case FailureCoupon:
		return metrics.OutcomeCouponRejected
	}
	return metrics.OutcomePersistenceFailure
}
