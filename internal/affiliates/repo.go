package affiliates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalink/affiliates-backend/pkg/db/models"
)

// Repository manages persistence for affiliates and their store links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAffiliate(ctx context.Context, affiliate *models.Affiliate) error
	GetAffiliateByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error)
	GetAffiliateByEmail(ctx context.Context, email string) (*models.Affiliate, error)
	CreateLink(ctx context.Context, link *models.StoreAffiliate) error
	GetLinkByID(ctx context.Context, id uuid.UUID) (*models.StoreAffiliate, error)
	GetLinkByPair(ctx context.Context, storeID, affiliateID uuid.UUID) (*models.StoreAffiliate, error)
	UpdateLink(ctx context.Context, link *models.StoreAffiliate) error
	ListLinksByStore(ctx context.Context, storeID uuid.UUID) ([]models.StoreAffiliate, error)
	ListLinksByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]models.StoreAffiliate, error)
	GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an affiliate repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAffiliate(ctx context.Context, affiliate *models.Affiliate) error {
	return r.db.WithContext(ctx).Create(affiliate).Error
}

func (r *repository) GetAffiliateByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := r.db.WithContext(ctx).First(&affiliate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &affiliate, nil
}

func (r *repository) GetAffiliateByEmail(ctx context.Context, email string) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := r.db.WithContext(ctx).First(&affiliate, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &affiliate, nil
}

func (r *repository) CreateLink(ctx context.Context, link *models.StoreAffiliate) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *repository) GetLinkByID(ctx context.Context, id uuid.UUID) (*models.StoreAffiliate, error) {
	var link models.StoreAffiliate
	if err := r.db.WithContext(ctx).First(&link, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) GetLinkByPair(ctx context.Context, storeID, affiliateID uuid.UUID) (*models.StoreAffiliate, error) {
	var link models.StoreAffiliate
	if err := r.db.WithContext(ctx).
		First(&link, "store_id = ? AND affiliate_id = ?", storeID, affiliateID).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) UpdateLink(ctx context.Context, link *models.StoreAffiliate) error {
	return r.db.WithContext(ctx).Save(link).Error
}

func (r *repository) ListLinksByStore(ctx context.Context, storeID uuid.UUID) ([]models.StoreAffiliate, error) {
	var links []models.StoreAffiliate
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) ListLinksByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]models.StoreAffiliate, error) {
	var links []models.StoreAffiliate
	if err := r.db.WithContext(ctx).
		Where("affiliate_id = ?", affiliateID).
		Order("created_at ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}
