package settings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bayancosmetic/storefront/pkg/db/models"
)

type Repository interface {
	All(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, key string, value json.RawMessage) (*models.Setting, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) All(ctx context.Context) ([]models.Setting, error) {
	var rows []models.Setting
	err := r.db.WithContext(ctx).Order("key ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) Upsert(ctx context.Context, key string, value json.RawMessage) (*models.Setting, error) {
	row := &models.Setting{ID: uuid.New(), Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	var stored models.Setting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}
