package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bayancosmetic/storefront/pkg/db/models"
	"github.com/bayancosmetic/storefront/pkg/enums"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/pagination"
)

// UniqueNumberIndex guards order numbers.
const UniqueNumberIndex = "ux_orders_order_number"

// Repository persists orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Create inserts the header and then every line in one batch.
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// ListNeedingReconciliation skips orders whose checkout has neither
	// settled nor gone stale before staleBefore.
	ListNeedingReconciliation(ctx context.Context, staleBefore time.Time, limit int) ([]models.Order, error)
	MarkItemStockApplied(ctx context.Context, itemID uuid.UUID) error
	MarkCouponRedeemed(ctx context.Context, orderID uuid.UUID) error
	// SettleBookkeeping records the final flags and hands the order over to
	// the reconciler if anything is still owed.
	SettleBookkeeping(ctx context.Context, orderID uuid.UUID, stockApplied, couponRedeemed bool) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return err
	}
	if len(order.Items) == 0 {
		return nil
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	return r.db.WithContext(ctx).Create(&order.Items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	return r.findOne(ctx, "order_number = ?", strings.TrimSpace(number))
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where(query, arg).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// List pages through orders newest first. Lines are not loaded.
func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})

	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if term := strings.ToLower(strings.TrimSpace(filters.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("(LOWER(order_number) LIKE ? OR LOWER(customer_name) LIKE ? OR customer_phone LIKE ?)", like, like, like)
	}
	if city := strings.ToLower(strings.TrimSpace(filters.City)); city != "" {
		q = q.Where("LOWER(customer_city) LIKE ?", "%"+city+"%")
	}
	if code := strings.ToLower(strings.TrimSpace(filters.CouponCode)); code != "" {
		q = q.Where("LOWER(coupon_code) LIKE ?", "%"+code+"%")
	}
	if filters.From != nil {
		q = q.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		q = q.Where("created_at <= ?", *filters.To)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = q.Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

// ListNeedingReconciliation returns the oldest orders whose stock or coupon
// bookkeeping is still owed, lines included.
func (r *repository) ListNeedingReconciliation(ctx context.Context, staleBefore time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("status <> ?", enums.OrderStatusCanceled).
		Where("(stock_applied = ? OR (coupon_id IS NOT NULL AND coupon_redeemed = ?))", false, false).
		Where("(bookkeeping_settled_at IS NOT NULL OR created_at < ?)", staleBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) MarkItemStockApplied(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		UpdateColumn("stock_applied", true).Error
}

func (r *repository) MarkCouponRedeemed(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumn("coupon_redeemed", true).Error
}

func (r *repository) SettleBookkeeping(ctx context.Context, orderID uuid.UUID, stockApplied, couponRedeemed bool) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"stock_applied":          stockApplied,
			"coupon_redeemed":        couponRedeemed,
			"bookkeeping_settled_at": now,
			"updated_at":             now,
		}).Error
}
