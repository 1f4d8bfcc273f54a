package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
)

var maxPercentage = decimal.NewFromInt(100)

type linkReader interface {
	GetLinkByID(ctx context.Context, id uuid.UUID) (*models.StoreAffiliate, error)
}

// Service defines commission rule management. Malformed values are
// rejected here, at creation time; the resolver itself never fails.
type Service interface {
	CreateRule(ctx context.Context, input CreateRuleInput) (*models.CommissionRule, error)
	ListRules(ctx context.Context, storeAffiliateID uuid.UUID) ([]models.CommissionRule, error)
	DeleteRule(ctx context.Context, storeAffiliateID, ruleID uuid.UUID) error
}

type service struct {
	repo  Repository
	links linkReader
}

// NewService wires a rule service with the required dependencies.
func NewService(repo Repository, links linkReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rules repository required")
	}
	if links == nil {
		return nil, fmt.Errorf("store affiliate reader required")
	}
	return &service{repo: repo, links: links}, nil
}

func (s *service) CreateRule(ctx context.Context, input CreateRuleInput) (*models.CommissionRule, error) {
	if input.StoreAffiliateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store affiliate id required")
	}
	if !input.AppliesTo.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "applies_to must be product or category")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission type must be percentage or fixed")
	}
	if !input.Value.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission value must be positive")
	}
	if input.Type == enums.CommissionTypePercentage && input.Value.GreaterThan(maxPercentage) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage cannot exceed 100")
	}
	targetKey := NormalizeTargetKey(input.TargetKey)
	if targetKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target key required")
	}
	if input.AppliesTo == enums.RuleAppliesToProduct {
		if _, err := uuid.Parse(targetKey); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product rules require a product id target")
		}
	}

	link, err := s.links.GetLinkByID(ctx, input.StoreAffiliateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store affiliate")
	}
	if link.Status != enums.AffiliateLinkStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "link is not active")
	}

	label := input.TargetLabel
	if label == "" {
		label = input.TargetKey
	}
	rule := &models.CommissionRule{
		StoreAffiliateID: input.StoreAffiliateID,
		AppliesTo:        input.AppliesTo,
		TargetKey:        targetKey,
		TargetLabel:      label,
		Type:             input.Type,
		Value:            input.Value,
	}
	if err := s.repo.Upsert(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save commission rule")
	}
	return rule, nil
}

func (s *service) ListRules(ctx context.Context, storeAffiliateID uuid.UUID) ([]models.CommissionRule, error) {
	if storeAffiliateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store affiliate id required")
	}
	ruleSet, err := s.repo.ListByStoreAffiliate(ctx, storeAffiliateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list commission rules")
	}
	return ruleSet, nil
}

func (s *service) DeleteRule(ctx context.Context, storeAffiliateID, ruleID uuid.UUID) error {
	if storeAffiliateID == uuid.Nil || ruleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store affiliate id and rule id required")
	}
	rule, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "commission rule not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission rule")
	}
	if rule.StoreAffiliateID != storeAffiliateID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "rule does not belong to link")
	}
	if err := s.repo.Delete(ctx, ruleID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete commission rule")
	}
	return nil
}
