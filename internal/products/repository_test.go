package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bayancosmetic/storefront/pkg/db/dbtest"
	"github.com/bayancosmetic/storefront/pkg/db/models"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
)

func seedProduct(t *testing.T, db *gorm.DB, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		Slug:          "serum-" + uuid.NewString()[:6],
		Name:          "Argan Serum",
		PriceCents:    10000,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestDecrementIfAvailable(t *testing.T) {
	db := dbtest.Open(t, dbtest.Products)
	repo := NewRepository(db)
	ctx := context.Background()
	product := seedProduct(t, db, 3)

	ok, err := repo.DecrementIfAvailable(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementIfAvailable(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "only one unit remains")

	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.StockQuantity)
}

func TestSetStockAndNotFound(t *testing.T) {
	db := dbtest.Open(t, dbtest.Products)
	repo := NewRepository(db)
	ctx := context.Background()
	product := seedProduct(t, db, 5)

	require.NoError(t, repo.SetStock(ctx, product.ID, 0))
	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.StockQuantity)

	err = repo.SetStock(ctx, uuid.New(), 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestWithTxNilReturnsSelf(t *testing.T) {
	repo := NewRepository(nil)
	if repo.WithTx(nil) != repo {
		t.Fatal("expected WithTx(nil) to return the same repository")
	}
}
