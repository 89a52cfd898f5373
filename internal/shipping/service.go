package shipping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	dbpkg "github.com/bayancosmetic/storefront/pkg/db"
	"github.com/bayancosmetic/storefront/pkg/db/models"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
)

const readRetryDelay = 200 * time.Millisecond

// City is a delivery destination shown at checkout.
type City struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"city_name"`
	CostCents int64     `json:"shipping_cost_cents"`
	IsActive  bool      `json:"is_active"`
}

type Service interface {
	// Cities lists active destinations sorted by name.
	Cities(ctx context.Context) ([]City, error)
	// CostFor returns the city cost, or ok=false when the city is not an active destination.
	CostFor(ctx context.Context, city string) (cost int64, ok bool, err error)
	ListAll(ctx context.Context) ([]City, error)
	Create(ctx context.Context, input CityInput) (*City, error)
	Update(ctx context.Context, id uuid.UUID, input CityUpdate) (*City, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CityInput struct {
	Name      string `json:"city_name" validate:"required,min=2,max=80"`
	CostCents int64  `json:"shipping_cost_cents" validate:"gte=0"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

type CityUpdate struct {
	Name      *string `json:"city_name,omitempty" validate:"omitempty,min=2,max=80"`
	CostCents *int64  `json:"shipping_cost_cents,omitempty" validate:"omitempty,gte=0"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type service struct {
	repo    Repository
	backoff func() retry.Backoff
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	return &service{repo: repo, backoff: defaultBackoff}, nil
}

// storefront reads are retried once after a short pause.
func defaultBackoff() retry.Backoff {
	return retry.WithMaxRetries(1, retry.NewConstant(readRetryDelay))
}

func (s *service) Cities(ctx context.Context) ([]City, error) {
	var rows []models.ShippingCost
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		var err error
		rows, err = s.repo.ListActive(ctx)
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping cities")
	}
	return toCities(rows), nil
}

func (s *service) CostFor(ctx context.Context, city string) (int64, bool, error) {
	var row *models.ShippingCost
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		var err error
		row, err = s.repo.FindByCity(ctx, city)
		return retry.RetryableError(err)
	})
	if err != nil {
		return 0, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup shipping cost")
	}
	if row == nil {
		return 0, false, nil
	}
	return row.CostCents, true, nil
}

func (s *service) ListAll(ctx context.Context) ([]City, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return toCities(rows), nil
}

func (s *service) Create(ctx context.Context, input CityInput) (*City, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city_name is required").
			WithDetails(map[string]string{"city_name": "is required"})
	}
	if input.CostCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping_cost_cents must not be negative").
			WithDetails(map[string]string{"shipping_cost_cents": "must be zero or greater"})
	}
	row := &models.ShippingCost{
		CityName:  name,
		CostCents: input.CostCents,
		IsActive:  input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_shipping_costs_city_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "city already exists").
				WithDetails(map[string]string{"city_name": name})
		}
		return nil, err
	}
	city := toCity(*row)
	return &city, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input CityUpdate) (*City, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "city_name must not be empty").
				WithDetails(map[string]string{"city_name": "must not be empty"})
		}
		updates["city_name"] = name
	}
	if input.CostCents != nil {
		if *input.CostCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping_cost_cents must not be negative").
				WithDetails(map[string]string{"shipping_cost_cents": "must be zero or greater"})
		}
		updates["cost_cents"] = *input.CostCents
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_shipping_costs_city_name") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "city already exists")
			}
			return nil, err
		}
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	city := toCity(*row)
	return &city, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func toCities(rows []models.ShippingCost) []City {
	out := make([]City, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCity(row))
	}
	return out
}

func toCity(row models.ShippingCost) City {
	return City{ID: row.ID, Name: row.CityName, CostCents: row.CostCents, IsActive: row.IsActive}
}
