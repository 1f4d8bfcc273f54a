package affiliates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/vendalink/affiliates-backend/pkg/db"
	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/outbox"
)

var maxPercentage = decimal.NewFromInt(100)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines affiliate identity and link lifecycle operations.
type Service interface {
	CreateAffiliate(ctx context.Context, input CreateAffiliateInput) (*models.Affiliate, error)
	GetAffiliate(ctx context.Context, id uuid.UUID) (*models.Affiliate, error)
	Invite(ctx context.Context, input InviteInput) (*models.StoreAffiliate, error)
	Accept(ctx context.Context, linkID, affiliateID uuid.UUID) (*models.StoreAffiliate, error)
	Reject(ctx context.Context, linkID, affiliateID uuid.UUID) (*models.StoreAffiliate, error)
	UpdateDefaultCommission(ctx context.Context, input UpdateDefaultCommissionInput) (*models.StoreAffiliate, error)
	GetLink(ctx context.Context, id uuid.UUID) (*models.StoreAffiliate, error)
	ListStoreLinks(ctx context.Context, storeID uuid.UUID) ([]models.StoreAffiliate, error)
	ListAffiliateLinks(ctx context.Context, affiliateID uuid.UUID) ([]models.StoreAffiliate, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService wires an affiliate service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("affiliates repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) CreateAffiliate(ctx context.Context, input CreateAffiliateInput) (*models.Affiliate, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	pixKey := strings.TrimSpace(input.PixKey)
	if name == "" || email == "" || pixKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, email and pix key are required")
	}

	affiliate := &models.Affiliate{
		Name:     name,
		Email:    email,
		PixKey:   pixKey,
		IsActive: true,
	}
	if err := s.repo.CreateAffiliate(ctx, affiliate); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create affiliate")
	}
	return affiliate, nil
}

func (s *service) GetAffiliate(ctx context.Context, id uuid.UUID) (*models.Affiliate, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate id required")
	}
	affiliate, err := s.repo.GetAffiliateByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load affiliate")
	}
	return affiliate, nil
}

func (s *service) Invite(ctx context.Context, input InviteInput) (*models.StoreAffiliate, error) {
	if input.StoreID == uuid.Nil || input.AffiliateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id and affiliate id required")
	}
	commissionType := input.DefaultCommissionType
	if commissionType == "" {
		commissionType = enums.CommissionTypePercentage
	}
	if !commissionType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission type must be percentage or fixed")
	}
	if input.DefaultCommissionValue.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission value cannot be negative")
	}
	if commissionType == enums.CommissionTypePercentage && input.DefaultCommissionValue.GreaterThan(maxPercentage) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage cannot exceed 100")
	}

	if _, err := s.repo.GetStore(ctx, input.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	affiliate, err := s.repo.GetAffiliateByID(ctx, input.AffiliateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load affiliate")
	}
	if !affiliate.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "affiliate is deactivated")
	}

	link := &models.StoreAffiliate{
		StoreID:                input.StoreID,
		AffiliateID:            input.AffiliateID,
		Status:                 enums.AffiliateLinkStatusInvited,
		DefaultCommissionType:  commissionType,
		DefaultCommissionValue: input.DefaultCommissionValue,
		CommissionEnabled:      true,
	}
	if err := s.repo.CreateLink(ctx, link); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "affiliate already linked to store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store affiliate")
	}
	return link, nil
}

func (s *service) Accept(ctx context.Context, linkID, affiliateID uuid.UUID) (*models.StoreAffiliate, error) {
	if linkID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "link id required")
	}

	var updated *models.StoreAffiliate
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		link, err := repo.GetLinkByID(ctx, linkID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "store affiliate not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store affiliate")
		}
		if affiliateID != uuid.Nil && link.AffiliateID != affiliateID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "link belongs to another affiliate")
		}
		if link.Status != enums.AffiliateLinkStatusInvited {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only invited links can be accepted")
		}

		link.Status = enums.AffiliateLinkStatusActive
		if err := repo.UpdateLink(ctx, link); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate store affiliate")
		}
		updated = link

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAffiliateLinkActivated,
			AggregateType: enums.AggregateStoreAffiliate,
			AggregateID:   link.ID,
			Version:       1,
			Data: map[string]any{
				"store_affiliate_id": link.ID,
				"store_id":           link.StoreID,
				"affiliate_id":       link.AffiliateID,
				"activated_at":       time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Reject(ctx context.Context, linkID, affiliateID uuid.UUID) (*models.StoreAffiliate, error) {
	if linkID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "link id required")
	}
	link, err := s.repo.GetLinkByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store affiliate")
	}
	if affiliateID != uuid.Nil && link.AffiliateID != affiliateID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "link belongs to another affiliate")
	}
	if link.Status != enums.AffiliateLinkStatusInvited {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only invited links can be rejected")
	}

	link.Status = enums.AffiliateLinkStatusRejected
	if err := s.repo.UpdateLink(ctx, link); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject store affiliate")
	}
	return link, nil
}

func (s *service) UpdateDefaultCommission(ctx context.Context, input UpdateDefaultCommissionInput) (*models.StoreAffiliate, error) {
	if input.StoreAffiliateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store affiliate id required")
	}
	if input.Type == nil && input.Value == nil && input.CommissionEnabled == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	link, err := s.repo.GetLinkByID(ctx, input.StoreAffiliateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store affiliate")
	}

	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission type must be percentage or fixed")
		}
		link.DefaultCommissionType = *input.Type
	}
	if input.Value != nil {
		if input.Value.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission value cannot be negative")
		}
		link.DefaultCommissionValue = *input.Value
	}
	if link.DefaultCommissionType == enums.CommissionTypePercentage && link.DefaultCommissionValue.GreaterThan(maxPercentage) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage cannot exceed 100")
	}
	if input.CommissionEnabled != nil {
		link.CommissionEnabled = *input.CommissionEnabled
	}

	if err := s.repo.UpdateLink(ctx, link); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store affiliate")
	}
	return link, nil
}

func (s *service) GetLink(ctx context.Context, id uuid.UUID) (*models.StoreAffiliate, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "link id required")
	}
	link, err := s.repo.GetLinkByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store affiliate")
	}
	return link, nil
}

func (s *service) ListStoreLinks(ctx context.Context, storeID uuid.UUID) ([]models.StoreAffiliate, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	links, err := s.repo.ListLinksByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store links")
	}
	return links, nil
}

func (s *service) ListAffiliateLinks(ctx context.Context, affiliateID uuid.UUID) ([]models.StoreAffiliate, error) {
	if affiliateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate id required")
	}
	links, err := s.repo.ListLinksByAffiliate(ctx, affiliateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list affiliate links")
	}
	return links, nil
}
