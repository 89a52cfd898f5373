package checkout

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bayancosmetic/storefront/internal/orders"
	dbpkg "github.com/bayancosmetic/storefront/pkg/db"
	"github.com/bayancosmetic/storefront/pkg/db/models"
)

const orderNumberSavepoint = "order_number"

// OrderWriter persists the order header and its lines.
type OrderWriter struct {
	repo      orders.Repository
	now       func() time.Time
	newNumber func(time.Time) string
}

func NewOrderWriter(repo orders.Repository) *OrderWriter {
	return &OrderWriter{
		repo:      repo,
		now:       func() time.Time { return time.Now().UTC() },
		newNumber: orders.NewNumber,
	}
}

// Write assigns an order number and inserts the draft inside tx. A clash on
// the order number is retried once with a fresh number; tx must not be nil.
func (w *OrderWriter) Write(ctx context.Context, tx *gorm.DB, draft *models.Order) (*models.Order, error) {
	repo := w.repo.WithTx(tx)
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		draft.OrderNumber = w.newNumber(w.now())
		if err = w.create(ctx, tx, repo, draft); err == nil {
			return draft, nil
		}
		if !dbpkg.IsUniqueViolation(err, orders.UniqueNumberIndex) {
			break
		}
	}
	return nil, persistenceFailed(err)
}

func (w *OrderWriter) create(ctx context.Context, tx *gorm.DB, repo orders.Repository, draft *models.Order) error {
	if err := tx.SavePoint(orderNumberSavepoint).Error; err != nil {
		return err
	}
	if err := repo.Create(ctx, draft); err != nil {
		if rbErr := tx.RollbackTo(orderNumberSavepoint).Error; rbErr != nil {
			return rbErr
		}
		return err
	}
	return nil
}
