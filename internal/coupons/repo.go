package coupons

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalink/affiliates-backend/pkg/db/models"
)

// Repository manages persistence for coupons and their affiliate links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	GetByCode(ctx context.Context, storeID uuid.UUID, code string) (*models.Coupon, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Coupon, error)
	CurrentLink(ctx context.Context, couponID uuid.UUID) (*models.CouponAffiliate, error)
	ReplaceLink(ctx context.Context, couponID, storeAffiliateID uuid.UUID) error
	HasEarnings(ctx context.Context, couponID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a coupon repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) GetByCode(ctx context.Context, storeID uuid.UUID, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).
		First(&coupon, "store_id = ? AND code = ?", storeID, code).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Coupon, error) {
	var out []models.Coupon
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CurrentLink returns the newest junction row or the legacy single-link
// column when no junction row exists yet.
func (r *repository) CurrentLink(ctx context.Context, couponID uuid.UUID) (*models.CouponAffiliate, error) {
	var link models.CouponAffiliate
	err := r.db.WithContext(ctx).
		Where("coupon_id = ?", couponID).
		Order("created_at DESC").
		First(&link).Error
	if err == nil {
		return &link, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "id = ?", couponID).Error; err != nil {
		return nil, err
	}
	if coupon.LegacyStoreAffiliateID == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.CouponAffiliate{
		CouponID:         coupon.ID,
		StoreAffiliateID: *coupon.LegacyStoreAffiliateID,
	}, nil
}

func (r *repository) ReplaceLink(ctx context.Context, couponID, storeAffiliateID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Delete(&models.CouponAffiliate{}, "coupon_id = ?", couponID).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&models.CouponAffiliate{
		CouponID:         couponID,
		StoreAffiliateID: storeAffiliateID,
	}).Error
}

func (r *repository) HasEarnings(ctx context.Context, couponID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AffiliateEarning{}).
		Where("coupon_id = ?", couponID).
		Count(&count).Error
	return count > 0, err
}
