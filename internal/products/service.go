package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bayancosmetic/storefront/pkg/db/models"
	"github.com/bayancosmetic/storefront/pkg/enums"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/outbox"
	"github.com/bayancosmetic/storefront/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes back-office stock management.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SetStock(ctx context.Context, adminID, productID uuid.UUID, qty int) (*models.Product, error)
}

type service struct {
	tx     txRunner
	repo   Repository
	outbox outboxPublisher
}

func NewService(tx txRunner, repo Repository, publisher outboxPublisher) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{tx: tx, repo: repo, outbox: publisher}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// SetStock overwrites the stock count and records the adjustment in the outbox.
func (s *service) SetStock(ctx context.Context, adminID, productID uuid.UUID, qty int) (*models.Product, error) {
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must not be negative").
			WithDetails(map[string]string{"stock_quantity": "must be zero or greater"})
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := repo.SetStock(ctx, productID, qty); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventStockAdjusted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Actor:         &outbox.ActorRef{AdminID: &adminID, Role: string(enums.AdminRoleAdmin)},
			Version:       1,
			Data: payloads.StockAdjustedEvent{
				ProductID:     productID,
				PreviousStock: current.StockQuantity,
				StockQuantity: qty,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		current.StockQuantity = qty
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
