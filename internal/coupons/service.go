package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/vendalink/affiliates-backend/pkg/db"
	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type linkReader interface {
	GetLinkByID(ctx context.Context, id uuid.UUID) (*models.StoreAffiliate, error)
}

// Service defines coupon registration and affiliate attribution.
type Service interface {
	RegisterCoupon(ctx context.Context, input RegisterCouponInput) (*models.Coupon, error)
	LinkAffiliate(ctx context.Context, input LinkAffiliateInput) error
	ResolveAttribution(ctx context.Context, storeID uuid.UUID, code string) (*Attribution, error)
	ListStoreCoupons(ctx context.Context, storeID uuid.UUID) ([]models.Coupon, error)
}

type service struct {
	repo   Repository
	links  linkReader
	tx     txRunner
	outbox outboxPublisher
}

// NewService wires a coupon service with the required dependencies.
func NewService(repo Repository, links linkReader, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	if links == nil {
		return nil, fmt.Errorf("store affiliate reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, links: links, tx: tx, outbox: outboxSvc}, nil
}

// NormalizeCode canonicalizes coupon codes for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) RegisterCoupon(ctx context.Context, input RegisterCouponInput) (*models.Coupon, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount type must be percentage or fixed")
	}
	if !input.DiscountValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}

	scope := input.Scope
	if scope == "" {
		scope = enums.CouponScopeAll
	}
	if !scope.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon scope")
	}
	switch scope {
	case enums.CouponScopeProduct:
		if input.ScopeProductID == nil || *input.ScopeProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product scope requires a product id")
		}
	case enums.CouponScopeCategory:
		if len(input.ScopeCategories) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category scope requires at least one category")
		}
	}

	coupon := &models.Coupon{
		StoreID:         input.StoreID,
		Code:            code,
		DiscountType:    input.DiscountType,
		DiscountValue:   input.DiscountValue,
		Scope:           scope,
		ScopeProductID:  input.ScopeProductID,
		ScopeCategories: input.ScopeCategories,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists for store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return coupon, nil
}

// LinkAffiliate attaches the coupon to a link. Once any earning has been
// attributed through the coupon the attachment is permanent.
func (s *service) LinkAffiliate(ctx context.Context, input LinkAffiliateInput) error {
	if input.CouponID == uuid.Nil || input.StoreAffiliateID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon id and store affiliate id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		coupon, err := repo.GetByID(ctx, input.CouponID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
		}

		link, err := s.links.GetLinkByID(ctx, input.StoreAffiliateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "store affiliate not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store affiliate")
		}
		if link.StoreID != coupon.StoreID {
			return pkgerrors.New(pkgerrors.CodeValidation, "link belongs to another store")
		}
		if link.Status != enums.AffiliateLinkStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "link is not active")
		}

		current, err := repo.CurrentLink(ctx, input.CouponID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon link")
		}
		if current != nil {
			if current.StoreAffiliateID == input.StoreAffiliateID {
				return nil
			}
			attributed, err := repo.HasEarnings(ctx, input.CouponID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check coupon earnings")
			}
			if attributed {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "coupon already has attributed earnings and cannot be relinked")
			}
		}

		if err := repo.ReplaceLink(ctx, input.CouponID, input.StoreAffiliateID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link coupon")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCouponLinked,
			AggregateType: enums.AggregateCoupon,
			AggregateID:   coupon.ID,
			Version:       1,
			Data: map[string]any{
				"coupon_id":          coupon.ID,
				"store_id":           coupon.StoreID,
				"store_affiliate_id": input.StoreAffiliateID,
				"code":               coupon.Code,
			},
		})
	})
}

// ResolveAttribution looks up the coupon by code and returns the link it
// credits. Used by order ingestion; an unlinked coupon yields NotFound.
func (s *service) ResolveAttribution(ctx context.Context, storeID uuid.UUID, code string) (*Attribution, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}

	coupon, err := s.repo.GetByCode(ctx, storeID, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	current, err := s.repo.CurrentLink(ctx, coupon.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon is not linked to an affiliate")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon link")
	}

	return &Attribution{
		Coupon: &CouponView{
			ID:              coupon.ID,
			StoreID:         coupon.StoreID,
			Code:            coupon.Code,
			DiscountType:    coupon.DiscountType,
			DiscountValue:   coupon.DiscountValue,
			Scope:           coupon.Scope,
			ScopeProductID:  coupon.ScopeProductID,
			ScopeCategories: coupon.ScopeCategories,
		},
		StoreAffiliateID: current.StoreAffiliateID,
	}, nil
}

func (s *service) ListStoreCoupons(ctx context.Context, storeID uuid.UUID) ([]models.Coupon, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	out, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return out, nil
}
