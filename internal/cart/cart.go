// Package cart holds the session cart and its persistence.
package cart

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// SchemaVersion is stamped on every persisted snapshot.
const SchemaVersion = 1

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrLineNotFound    = errors.New("product not in cart")
)

// Line is one product in the cart with the price captured when it was added.
type Line struct {
	ProductID             uuid.UUID `json:"product_id"`
	Name                  string    `json:"name"`
	UnitPriceCents        int64     `json:"unit_price_cents"`
	Quantity              int       `json:"quantity"`
	SizeLabel             string    `json:"size_label,omitempty"`
	ImageURL              *string   `json:"image_url,omitempty"`
	ShippingOverrideCents *int64    `json:"shipping_override_cents,omitempty"`
}

func (l Line) SubtotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// AppliedCoupon marks a validated coupon on the cart. Usage is only counted at checkout.
type AppliedCoupon struct {
	CouponID uuid.UUID `json:"coupon_id"`
	Code     string    `json:"code"`
}

// Snapshot is the serialisable form of a Cart.
type Snapshot struct {
	SchemaVersion int            `json:"schema_version"`
	Revision      int64          `json:"revision"`
	Lines         []Line         `json:"lines"`
	Coupon        *AppliedCoupon `json:"coupon,omitempty"`
}

// Cart keeps lines keyed by product in insertion order. Safe for concurrent use.
type Cart struct {
	mu       sync.Mutex
	order    []uuid.UUID
	lines    map[uuid.UUID]Line
	coupon   *AppliedCoupon
	revision int64
}

func New() *Cart {
	return &Cart{lines: make(map[uuid.UUID]Line)}
}

// FromSnapshot rebuilds a cart. Lines with a non-positive quantity are dropped.
func FromSnapshot(s Snapshot) *Cart {
	c := New()
	for _, line := range s.Lines {
		if line.Quantity < 1 {
			continue
		}
		if _, ok := c.lines[line.ProductID]; !ok {
			c.order = append(c.order, line.ProductID)
		}
		c.lines[line.ProductID] = line
	}
	if s.Coupon != nil {
		coupon := *s.Coupon
		c.coupon = &coupon
	}
	c.revision = s.Revision
	return c
}

func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		SchemaVersion: SchemaVersion,
		Revision:      c.revision,
		Lines:         c.linesLocked(),
	}
	if c.coupon != nil {
		coupon := *c.coupon
		s.Coupon = &coupon
	}
	return s
}

// Add inserts the line or, when the product is already present, adds to its
// quantity and refreshes the captured product details.
func (c *Cart) Add(line Line) error {
	if line.Quantity < 1 {
		return ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.lines[line.ProductID]; ok {
		line.Quantity += existing.Quantity
	} else {
		c.order = append(c.order, line.ProductID)
	}
	c.lines[line.ProductID] = line
	return nil
}

func (c *Cart) Remove(productID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(productID)
}

// SetQuantity replaces a line's quantity; zero or less removes the line.
func (c *Cart) SetQuantity(productID uuid.UUID, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	line, ok := c.lines[productID]
	if !ok {
		return ErrLineNotFound
	}
	if qty <= 0 {
		c.removeLocked(productID)
		return nil
	}
	line.Quantity = qty
	c.lines[productID] = line
	return nil
}

func (c *Cart) removeLocked(productID uuid.UUID) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cart and drops any applied coupon.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.lines = make(map[uuid.UUID]Line)
	c.coupon = nil
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.linesLocked()
}

func (c *Cart) linesLocked() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.lines[id])
	}
	return out
}

func (c *Cart) Subtotal() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, line := range c.lines {
		total += line.SubtotalCents()
	}
	return total
}

// ItemCount is the sum of quantities, not the number of lines.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

func (c *Cart) ApplyCoupon(coupon AppliedCoupon) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coupon = &coupon
}

func (c *Cart) AppliedCoupon() (AppliedCoupon, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.coupon == nil {
		return AppliedCoupon{}, false
	}
	return *c.coupon, true
}

func (c *Cart) ClearCoupon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coupon = nil
}

func (c *Cart) Revision() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

func (c *Cart) bumpRevision() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revision++
	return c.revision
}
