package earnings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	"github.com/vendalink/affiliates-backend/pkg/pagination"
)

// Repository manages persistence for the earning ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, earning *models.AffiliateEarning) error
	Update(ctx context.Context, earning *models.AffiliateEarning) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AffiliateEarning, error)
	GetByOrderLink(ctx context.Context, orderID, storeAffiliateID uuid.UUID) (*models.AffiliateEarning, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.AffiliateEarning, error)
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor) ([]models.AffiliateEarning, *pagination.Cursor, error)
	ListFlaggedForReconciliation(ctx context.Context, limit int) ([]models.AffiliateEarning, error)
	Aggregate(ctx context.Context, filter AggregateFilter, now time.Time) (*Summary, error)
	AvailableBalance(ctx context.Context, affiliateID, storeID uuid.UUID, now time.Time) (decimal.Decimal, error)
	ListAvailable(ctx context.Context, affiliateID, storeID uuid.UUID, now time.Time) ([]models.AffiliateEarning, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, earning *models.AffiliateEarning) error {
	return r.db.WithContext(ctx).Create(earning).Error
}

func (r *repository) Update(ctx context.Context, earning *models.AffiliateEarning) error {
	return r.db.WithContext(ctx).Save(earning).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.AffiliateEarning, error) {
	var earning models.AffiliateEarning
	if err := r.db.WithContext(ctx).First(&earning, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &earning, nil
}

func (r *repository) GetByOrderLink(ctx context.Context, orderID, storeAffiliateID uuid.UUID) (*models.AffiliateEarning, error) {
	var earning models.AffiliateEarning
	if err := r.db.WithContext(ctx).
		First(&earning, "order_id = ? AND store_affiliate_id = ?", orderID, storeAffiliateID).Error; err != nil {
		return nil, err
	}
	return &earning, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.AffiliateEarning, error) {
	var out []models.AffiliateEarning
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// List pages the ledger newest first with a (created_at, id) keyset.
func (r *repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor) ([]models.AffiliateEarning, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(filter.Limit)
	query := r.db.WithContext(ctx).
		Where("affiliate_id = ?", filter.AffiliateID)
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var out []models.AffiliateEarning
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&out).Error; err != nil {
		return nil, nil, err
	}
	if len(out) > normalized {
		out = out[:normalized]
		last := out[len(out)-1]
		return out, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return out, nil, nil
}

func (r *repository) ListFlaggedForReconciliation(ctx context.Context, limit int) ([]models.AffiliateEarning, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []models.AffiliateEarning
	if err := r.db.WithContext(ctx).
		Where("needs_reconciliation = ? AND delivered_at IS NOT NULL", true).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) scoped(ctx context.Context, filter AggregateFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.AffiliateEarning{}).
		Where("affiliate_id = ?", filter.AffiliateID)
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	return query
}

func (r *repository) sumWhere(query *gorm.DB, condition string, args ...any) (decimal.Decimal, error) {
	var raw *string
	if err := query.Where(condition, args...).
		Select("SUM(commission_amount)").
		Scan(&raw).Error; err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

// Aggregate computes the money buckets over non-cancelled earnings. The
// buckets over delivered orders are mutually exclusive: every delivered
// non-cancelled earning is exactly one of maturing, available, or paid.
func (r *repository) Aggregate(ctx context.Context, filter AggregateFilter, now time.Time) (*Summary, error) {
	earned, err := r.sumWhere(r.scoped(ctx, filter),
		"status <> ? AND order_status = ?",
		enums.EarningStatusCancelled, enums.OrderStatusDelivered)
	if err != nil {
		return nil, err
	}
	maturing, err := r.sumWhere(r.scoped(ctx, filter),
		"status <> ? AND status <> ? AND order_status = ? AND commission_available_at > ?",
		enums.EarningStatusCancelled, enums.EarningStatusPaid, enums.OrderStatusDelivered, now)
	if err != nil {
		return nil, err
	}
	available, err := r.sumWhere(r.scoped(ctx, filter),
		"status <> ? AND status <> ? AND order_status = ? AND commission_available_at <= ?",
		enums.EarningStatusCancelled, enums.EarningStatusPaid, enums.OrderStatusDelivered, now)
	if err != nil {
		return nil, err
	}
	pending, err := r.sumWhere(r.scoped(ctx, filter),
		"status <> ? AND order_status NOT IN ?",
		enums.EarningStatusCancelled, []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled})
	if err != nil {
		return nil, err
	}
	cancelled, err := r.sumWhere(r.scoped(ctx, filter),
		"status = ? OR order_status = ?",
		enums.EarningStatusCancelled, enums.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Earned:            earned,
		Maturing:          maturing,
		Available:         available,
		PendingProcessing: pending,
		Cancelled:         cancelled,
	}, nil
}

// AvailableBalance returns the withdrawable sum for one (affiliate, store).
func (r *repository) AvailableBalance(ctx context.Context, affiliateID, storeID uuid.UUID, now time.Time) (decimal.Decimal, error) {
	return r.sumWhere(
		r.db.WithContext(ctx).
			Model(&models.AffiliateEarning{}).
			Where("affiliate_id = ? AND store_id = ?", affiliateID, storeID),
		"status <> ? AND status <> ? AND order_status = ? AND commission_available_at <= ?",
		enums.EarningStatusCancelled, enums.EarningStatusPaid, enums.OrderStatusDelivered, now)
}

// ListAvailable returns withdrawable earnings ordered oldest maturity
// first, the order settlement consumes them in.
func (r *repository) ListAvailable(ctx context.Context, affiliateID, storeID uuid.UUID, now time.Time) ([]models.AffiliateEarning, error) {
	var out []models.AffiliateEarning
	if err := r.db.WithContext(ctx).
		Where("affiliate_id = ? AND store_id = ?", affiliateID, storeID).
		Where("status <> ? AND status <> ? AND order_status = ? AND commission_available_at <= ?",
			enums.EarningStatusCancelled, enums.EarningStatusPaid, enums.OrderStatusDelivered, now).
		Order("commission_available_at ASC").
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
