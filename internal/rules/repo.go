package rules

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendalink/affiliates-backend/pkg/db/models"
)

// Repository manages persistence for commission rules.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, rule *models.CommissionRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CommissionRule, error)
	ListByStoreAffiliate(ctx context.Context, storeAffiliateID uuid.UUID) ([]models.CommissionRule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a commission rule repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert replaces any existing rule for the same (link, target) slot.
func (r *repository) Upsert(ctx context.Context, rule *models.CommissionRule) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "store_affiliate_id"},
				{Name: "applies_to"},
				{Name: "target_key"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"type", "value", "target_label", "updated_at"}),
		}).
		Create(rule).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.CommissionRule, error) {
	var rule models.CommissionRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) ListByStoreAffiliate(ctx context.Context, storeAffiliateID uuid.UUID) ([]models.CommissionRule, error) {
	var ruleSet []models.CommissionRule
	if err := r.db.WithContext(ctx).
		Where("store_affiliate_id = ?", storeAffiliateID).
		Order("created_at ASC").
		Find(&ruleSet).Error; err != nil {
		return nil, err
	}
	return ruleSet, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CommissionRule{}, "id = ?", id).Error
}
