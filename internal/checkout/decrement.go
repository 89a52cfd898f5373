package checkout

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bayancosmetic/storefront/internal/products"
	"github.com/bayancosmetic/storefront/pkg/db/models"
)

// StockDecrementer applies purchased quantities to product stock.
type StockDecrementer struct {
	products products.Repository
}

func NewStockDecrementer(repo products.Repository) *StockDecrementer {
	return &StockDecrementer{products: repo}
}

// DecrementStrict runs inside the checkout transaction and only succeeds when
// every product still has enough stock. Rows are updated in product-id order
// so concurrent checkouts lock them in the same sequence.
func (d *StockDecrementer) DecrementStrict(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	repo := d.products.WithTx(tx)
	sorted := make([]models.OrderItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProductID.String() < sorted[j].ProductID.String()
	})

	for _, item := range sorted {
		ok, err := repo.DecrementIfAvailable(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		available := 0
		if product, err := repo.FindByID(ctx, item.ProductID); err == nil {
			available = product.StockQuantity
		}
		return insufficientStock(&InsufficientStockError{
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Available: available,
			Requested: item.Quantity,
		})
	}
	return nil
}

// LineOutcome reports one best-effort stock write.
type LineOutcome struct {
	ItemID    uuid.UUID
	ProductID uuid.UUID
	Err       error
}

// ItemMarker flags an order line as applied inside the stock write's tx.
type ItemMarker func(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) error

// DecrementBestEffort re-reads each product and writes max(0, stock-qty),
// one line at a time. Each line commits together with its applied flag, so a
// line is never decremented without being marked. A failing line does not
// stop the others.
func (d *StockDecrementer) DecrementBestEffort(ctx context.Context, runner txRunner, items []models.OrderItem, mark ItemMarker) []LineOutcome {
	outcomes := make([]LineOutcome, 0, len(items))
	for _, item := range items {
		err := runner.WithTx(ctx, func(tx *gorm.DB) error {
			repo := d.products.WithTx(tx)
			product, err := repo.FindByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := repo.SetStock(ctx, item.ProductID, max(0, product.StockQuantity-item.Quantity)); err != nil {
				return err
			}
			return mark(ctx, tx, item.ID)
		})
		outcomes = append(outcomes, LineOutcome{ItemID: item.ID, ProductID: item.ProductID, Err: err})
	}
	return outcomes
}
