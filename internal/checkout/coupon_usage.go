package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bayancosmetic/storefront/internal/coupons"
)

// CouponUsageUpdater counts a redemption against the coupon.
type CouponUsageUpdater struct {
	coupons coupons.Repository
}

func NewCouponUsageUpdater(repo coupons.Repository) *CouponUsageUpdater {
	return &CouponUsageUpdater{coupons: repo}
}

// RedeemStrict increments used_count inside tx unless max_uses is reached.
func (u *CouponUsageUpdater) RedeemStrict(ctx context.Context, tx *gorm.DB, couponID uuid.UUID, code string) error {
	ok, err := u.coupons.WithTx(tx).IncrementIfAvailable(ctx, couponID)
	if err != nil {
		return err
	}
	if !ok {
		return coupons.Reject(code, coupons.RejectionUsageLimitReached)
	}
	return nil
}

// RedeemBestEffort reads used_count and writes it back plus one, ignoring
// max_uses. tx also carries the order's coupon_redeemed flag.
func (u *CouponUsageUpdater) RedeemBestEffort(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error {
	repo := u.coupons.WithTx(tx)
	coupon, err := repo.FindByID(ctx, couponID)
	if err != nil {
		return err
	}
	return repo.SetUsedCount(ctx, couponID, coupon.UsedCount+1)
}
