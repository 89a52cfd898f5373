package shipping

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bayancosmetic/storefront/pkg/db/models"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
)

type Repository interface {
	ListActive(ctx context.Context) ([]models.ShippingCost, error)
	ListAll(ctx context.Context) ([]models.ShippingCost, error)
	FindByCity(ctx context.Context, city string) (*models.ShippingCost, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingCost, error)
	Create(ctx context.Context, row *models.ShippingCost) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListActive(ctx context.Context) ([]models.ShippingCost, error) {
	var rows []models.ShippingCost
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("city_name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListAll(ctx context.Context) ([]models.ShippingCost, error) {
	var rows []models.ShippingCost
	err := r.db.WithContext(ctx).Order("city_name ASC").Find(&rows).Error
	return rows, err
}

// FindByCity returns nil when the active destination list has no such city.
func (r *repository) FindByCity(ctx context.Context, city string) (*models.ShippingCost, error) {
	var row models.ShippingCost
	err := r.db.WithContext(ctx).
		Where("city_name = ? AND is_active = ?", strings.TrimSpace(city), true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingCost, error) {
	var row models.ShippingCost
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping destination not found")
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) Create(ctx context.Context, row *models.ShippingCost) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Select("*").Create(row).Error
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.ShippingCost{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shipping destination not found")
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.ShippingCost{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shipping destination not found")
	}
	return nil
}
