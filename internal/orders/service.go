package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bayancosmetic/storefront/pkg/db/models"
	"github.com/bayancosmetic/storefront/pkg/enums"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/logger"
	"github.com/bayancosmetic/storefront/pkg/outbox"
	"github.com/bayancosmetic/storefront/pkg/outbox/payloads"
	"github.com/bayancosmetic/storefront/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes order tracking and back-office order management.
type Service interface {
	Track(ctx context.Context, orderNumber string) (*TrackingView, error)
	Get(ctx context.Context, id uuid.UUID) (*OrderView, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[OrderView], error)
	Update(ctx context.Context, adminID, id uuid.UUID, input UpdateInput) (*OrderView, error)
}

type service struct {
	tx     txRunner
	repo   Repository
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(tx txRunner, repo Repository, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:     tx,
		repo:   repo,
		outbox: publisher,
		logg:   logg,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Track(ctx context.Context, orderNumber string) (*TrackingView, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required").
			WithDetails(map[string]string{"order_number": "required"})
	}
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	view := NewTrackingView(order)
	return &view, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewOrderView(order)
	return &view, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[OrderView], error) {
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return pagination.Page[OrderView]{}, pkgerrors.New(pkgerrors.CodeValidation, "date range is inverted").
			WithDetails(map[string]string{"to": "must not be before from"})
	}
	rows, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return pagination.Page[OrderView]{}, err
	}
	page := pagination.Paginate(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	views := make([]OrderView, 0, len(page.Items))
	for i := range page.Items {
		views = append(views, NewOrderView(&page.Items[i]))
	}
	return pagination.Page[OrderView]{Items: views, NextCursor: page.NextCursor}, nil
}

// Update applies a status transition and/or new notes. A status change is
// checked against the allowed transitions and recorded in the outbox.
func (s *service) Update(ctx context.Context, adminID, id uuid.UUID, input UpdateInput) (*OrderView, error) {
	if input.Status == nil && input.Notes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]string{"status": string(*input.Status)})
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		now := s.now()
		updates := map[string]any{"updated_at": now}
		from := order.Status
		statusChanged := input.Status != nil && *input.Status != from
		if statusChanged {
			if !from.CanTransitionTo(*input.Status) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
					WithDetails(map[string]string{"from": string(from), "to": string(*input.Status)})
			}
			updates["status"] = *input.Status
			order.Status = *input.Status
		}
		if notes := normalizeNotes(input.Notes); notes != nil {
			updates["notes"] = *notes
			order.Notes = notes
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return err
		}
		order.UpdatedAt = now

		if statusChanged {
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderStatusChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{AdminID: &adminID, Role: string(enums.AdminRoleAdmin)},
				Version:       1,
				OccurredAt:    now,
				Data: payloads.OrderStatusChangedEvent{
					OrderID:     order.ID,
					OrderNumber: order.OrderNumber,
					From:        from,
					To:          order.Status,
					ChangedAt:   now,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderNumber(ctx, updated.OrderNumber)
		logCtx = s.logg.WithAdminID(logCtx, adminID.String())
		logCtx = s.logg.WithField(logCtx, "status", updated.Status)
		s.logg.Info(logCtx, "order.updated")
	}
	view := NewOrderView(updated)
	return &view, nil
}
