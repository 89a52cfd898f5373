package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bayancosmetic/storefront/internal/coupons"
	"github.com/bayancosmetic/storefront/pkg/db/models"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/logger"
)

// MaxLineQuantity caps a single line.
const MaxLineQuantity = 99

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type couponApplier interface {
	Apply(ctx context.Context, code string, subtotal int64) (*coupons.Applied, error)
}

// View is the cart as returned to the storefront.
type View struct {
	Lines         []LineView  `json:"lines"`
	SubtotalCents int64       `json:"subtotal_cents"`
	ItemCount     int         `json:"item_count"`
	Coupon        *CouponView `json:"coupon,omitempty"`
	Revision      int64       `json:"revision"`
}

type LineView struct {
	Line
	SubtotalCents int64 `json:"subtotal_cents"`
}

// CouponView carries the discount only right after the coupon was applied;
// afterwards the quote is authoritative.
type CouponView struct {
	Code          string `json:"code"`
	DiscountCents *int64 `json:"discount_cents,omitempty"`
}

type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	AddItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*View, error)
	UpdateItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, sessionID string) error
	ApplyCoupon(ctx context.Context, sessionID, code string) (*View, error)
	RemoveCoupon(ctx context.Context, sessionID string) (*View, error)
	// Load returns the live cart for checkout.
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
}

type service struct {
	store    SessionStore
	products productReader
	coupons  couponApplier
	logg     *logger.Logger
}

func NewService(store SessionStore, products productReader, couponSvc couponApplier, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	return &service{store: store, products: products, coupons: couponSvc, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewView(c), nil
}

func (s *service) Load(ctx context.Context, sessionID string) (*Cart, error) {
	id, err := NormalizeSessionID(sessionID)
	if err != nil {
		return nil, invalidSession()
	}
	c, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart unavailable")
	}
	return c, nil
}

func (s *service) Save(ctx context.Context, sessionID string, c *Cart) error {
	id, err := NormalizeSessionID(sessionID)
	if err != nil {
		return invalidSession()
	}
	if err := s.store.Save(ctx, id, c); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart unavailable")
	}
	return nil
}

// AddItem captures the product's current name, price, size and shipping
// override on the line. Inactive products cannot be added.
func (s *service) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*View, error) {
	if qty < 1 || qty > MaxLineQuantity {
		return nil, quantityError()
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	line := Line{
		ProductID:             product.ID,
		Name:                  product.Name,
		UnitPriceCents:        product.PriceCents,
		Quantity:              qty,
		ImageURL:              product.ImageURL,
		ShippingOverrideCents: product.ShippingCostCents,
	}
	if product.Size != nil {
		line.SizeLabel = strings.TrimSpace(*product.Size)
	}
	for _, existing := range c.Lines() {
		if existing.ProductID == productID && existing.Quantity+qty > MaxLineQuantity {
			return nil, quantityError()
		}
	}
	if err := c.Add(line); err != nil {
		return nil, quantityError()
	}
	if err := s.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithSessionID(ctx, sessionID)
		logCtx = s.logg.WithFields(logCtx, map[string]any{"product_id": productID.String(), "quantity": qty})
		s.logg.Debug(logCtx, "cart.item_added")
	}
	return NewView(c), nil
}

func (s *service) UpdateItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*View, error) {
	if qty > MaxLineQuantity {
		return nil, quantityError()
	}
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.SetQuantity(productID, qty); err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
		}
		return nil, err
	}
	if err := s.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return NewView(c), nil
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.Remove(productID)
	if err := s.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return NewView(c), nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	id, err := NormalizeSessionID(sessionID)
	if err != nil {
		return invalidSession()
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart unavailable")
	}
	return nil
}

// ApplyCoupon validates the code against the current subtotal and marks it on
// the cart. The coupon's used_count is not touched.
func (s *service) ApplyCoupon(ctx context.Context, sessionID, code string) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").
			WithDetails(map[string]string{"cart": "empty"})
	}
	applied, err := s.coupons.Apply(ctx, code, c.Subtotal())
	if err != nil {
		return nil, err
	}
	c.ApplyCoupon(AppliedCoupon{CouponID: applied.CouponID, Code: applied.Code})
	if err := s.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	view := NewView(c)
	discount := applied.DiscountCents
	view.Coupon.DiscountCents = &discount
	return view, nil
}

func (s *service) RemoveCoupon(ctx context.Context, sessionID string) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.ClearCoupon()
	if err := s.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return NewView(c), nil
}

func NewView(c *Cart) *View {
	lines := c.Lines()
	view := &View{
		Lines:         make([]LineView, 0, len(lines)),
		SubtotalCents: c.Subtotal(),
		ItemCount:     c.ItemCount(),
		Revision:      c.Revision(),
	}
	for _, line := range lines {
		view.Lines = append(view.Lines, LineView{Line: line, SubtotalCents: line.SubtotalCents()})
	}
	if coupon, ok := c.AppliedCoupon(); ok {
		view.Coupon = &CouponView{Code: coupon.Code}
	}
	return view
}

func invalidSession() error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidSession, "missing or invalid X-Cart-Session header").
		WithDetails(map[string]string{"X-Cart-Session": "8 to 128 letters, digits, dashes or underscores"})
}

func quantityError() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid quantity").
		WithDetails(map[string]string{"quantity": fmt.Sprintf("must be between 1 and %d", MaxLineQuantity)})
}
