package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbpkg "github.com/bayancosmetic/storefront/pkg/db"
	"github.com/bayancosmetic/storefront/pkg/db/models"
	"github.com/bayancosmetic/storefront/pkg/enums"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
)

// Applied is a coupon accepted for a given subtotal.
type Applied struct {
	CouponID      uuid.UUID          `json:"coupon_id"`
	Code          string             `json:"code"`
	DiscountType  enums.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	DiscountCents int64              `json:"discount_cents"`
}

// Service validates coupon codes for shoppers and manages them for admins.
type Service interface {
	Apply(ctx context.Context, code string, subtotalCents int64) (*Applied, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, input CreateInput) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// NormalizeCode upper-cases and trims a shopper-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply checks, in order: existence, active flag, expiry, usage limit and
// minimum order. It never touches used_count.
func (s *service) Apply(ctx context.Context, code string, subtotalCents int64) (*Applied, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, reject(code, RejectionNotFound)
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup coupon")
	}
	if coupon == nil {
		return nil, reject(code, RejectionNotFound)
	}
	if !coupon.IsActive {
		return nil, reject(code, RejectionInactive)
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(s.now()) {
		return nil, reject(code, RejectionExpired)
	}
	if coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses {
		return nil, reject(code, RejectionUsageLimitReached)
	}
	if subtotalCents < coupon.MinOrderCents {
		return nil, rejectErr(&CouponError{Code: code, Reason: RejectionBelowMinimumOrder, MinOrderCents: coupon.MinOrderCents})
	}

	return &Applied{
		CouponID:      coupon.ID,
		Code:          coupon.Code,
		DiscountType:  coupon.DiscountType,
		DiscountValue: coupon.DiscountValue,
		DiscountCents: Discount(coupon.DiscountType, coupon.DiscountValue, subtotalCents),
	}, nil
}

func (s *service) List(ctx context.Context) ([]models.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Coupon, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	coupon := &models.Coupon{
		Code:          NormalizeCode(input.Code),
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		MinOrderCents: input.MinOrderCents,
		MaxUses:       input.MaxUses,
		ExpiresAt:     input.ExpiresAt,
		IsActive:      input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_coupons_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists").
				WithDetails(map[string]string{"code": coupon.Code})
		}
		return nil, err
	}
	return coupon, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Coupon, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updates, err := input.assignments(current)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_coupons_code") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
			}
			return nil, err
		}
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
