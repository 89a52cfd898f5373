package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bayancosmetic/storefront/internal/cart"
	"github.com/bayancosmetic/storefront/pkg/db/models"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
)

const defaultStockConcurrency = 8

type stockReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// StockChecker verifies every cart line can be served before anything is written.
type StockChecker struct {
	products stockReader
	limit    int
}

func NewStockChecker(products stockReader, limit int) *StockChecker {
	if limit <= 0 {
		limit = defaultStockConcurrency
	}
	return &StockChecker{products: products, limit: limit}
}

// Check reads each distinct product once, concurrently, then walks the lines
// in cart order and fails on the first one that exceeds stock. Missing or
// inactive products count as zero stock.
func (c *StockChecker) Check(ctx context.Context, lines []cart.Line) error {
	requested := make(map[uuid.UUID]int, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, seen := requested[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		requested[line.ProductID] += line.Quantity
	}

	var mu sync.Mutex
	found := make(map[uuid.UUID]*models.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for _, id := range ids {
		g.Go(func() error {
			product, err := c.products.FindByID(gctx, id)
			if err != nil {
				if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
					return nil
				}
				return err
			}
			mu.Lock()
			found[id] = product
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stock check failed")
	}

	names := make(map[uuid.UUID]string, len(lines))
	for _, line := range lines {
		if _, ok := names[line.ProductID]; !ok {
			names[line.ProductID] = line.Name
		}
	}
	for _, id := range ids {
		available := 0
		if product := found[id]; product != nil && product.IsActive {
			available = product.StockQuantity
		}
		if requested[id] > available {
			return insufficientStock(&InsufficientStockError{
				ProductID: id,
				Name:      names[id],
				Available: available,
				Requested: requested[id],
			})
		}
	}
	return nil
}
