package coupons

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/outbox"
)

type fakeRepository struct {
	coupons     map[uuid.UUID]*models.Coupon
	links       map[uuid.UUID]uuid.UUID
	hasEarnings bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		coupons: map[uuid.UUID]*models.Coupon{},
		links:   map[uuid.UUID]uuid.UUID{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	coupon.ID = uuid.New()
	f.coupons[coupon.ID] = coupon
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	if coupon, ok := f.coupons[id]; ok {
		return coupon, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetByCode(ctx context.Context, storeID uuid.UUID, code string) (*models.Coupon, error) {
	for _, coupon := range f.coupons {
		if coupon.StoreID == storeID && coupon.Code == code {
			return coupon, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Coupon, error) {
	return nil, nil
}

func (f *fakeRepository) CurrentLink(ctx context.Context, couponID uuid.UUID) (*models.CouponAffiliate, error) {
	if linkID, ok := f.links[couponID]; ok {
		return &models.CouponAffiliate{CouponID: couponID, StoreAffiliateID: linkID}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ReplaceLink(ctx context.Context, couponID, storeAffiliateID uuid.UUID) error {
	f.links[couponID] = storeAffiliateID
	return nil
}

func (f *fakeRepository) HasEarnings(ctx context.Context, couponID uuid.UUID) (bool, error) {
	return f.hasEarnings, nil
}

type fakeLinkReader struct {
	links map[uuid.UUID]*models.StoreAffiliate
}

func (f *fakeLinkReader) GetLinkByID(ctx context.Context, id uuid.UUID) (*models.StoreAffiliate, error) {
	if link, ok := f.links[id]; ok {
		return link, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newCouponService(t *testing.T, repo Repository, links linkReader, ob *fakeOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, links, fakeTxRunner{}, ob)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestRegisterCouponNormalizesCode(t *testing.T) {
	repo := newFakeRepository()
	svc := newCouponService(t, repo, &fakeLinkReader{}, &fakeOutbox{})

	coupon, err := svc.RegisterCoupon(context.Background(), RegisterCouponInput{
		StoreID:       uuid.New(),
		Code:          " promo10 ",
		DiscountType:  enums.CommissionTypePercentage,
		DiscountValue: decimal.RequireFromString("10"),
	})
	if err != nil {
		t.Fatalf("RegisterCoupon error: %v", err)
	}
	if coupon.Code != "PROMO10" {
		t.Fatalf("expected normalized code, got %q", coupon.Code)
	}
	if coupon.Scope != enums.CouponScopeAll {
		t.Fatalf("expected default scope all, got %s", coupon.Scope)
	}
}

func TestRegisterCouponScopeValidation(t *testing.T) {
	svc := newCouponService(t, newFakeRepository(), &fakeLinkReader{}, &fakeOutbox{})

	_, err := svc.RegisterCoupon(context.Background(), RegisterCouponInput{
		StoreID:       uuid.New(),
		Code:          "PROMO",
		DiscountType:  enums.CommissionTypePercentage,
		DiscountValue: decimal.RequireFromString("10"),
		Scope:         enums.CouponScopeProduct,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for product scope without id, got %v", err)
	}

	_, err = svc.RegisterCoupon(context.Background(), RegisterCouponInput{
		StoreID:       uuid.New(),
		Code:          "PROMO",
		DiscountType:  enums.CommissionTypePercentage,
		DiscountValue: decimal.RequireFromString("10"),
		Scope:         enums.CouponScopeCategory,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for category scope without categories, got %v", err)
	}
}

func TestLinkAffiliateEmitsEvent(t *testing.T) {
	repo := newFakeRepository()
	storeID := uuid.New()
	coupon := &models.Coupon{ID: uuid.New(), StoreID: storeID, Code: "PROMO"}
	repo.coupons[coupon.ID] = coupon

	linkID := uuid.New()
	links := &fakeLinkReader{links: map[uuid.UUID]*models.StoreAffiliate{
		linkID: {ID: linkID, StoreID: storeID, Status: enums.AffiliateLinkStatusActive},
	}}
	ob := &fakeOutbox{}
	svc := newCouponService(t, repo, links, ob)

	if err := svc.LinkAffiliate(context.Background(), LinkAffiliateInput{CouponID: coupon.ID, StoreAffiliateID: linkID}); err != nil {
		t.Fatalf("LinkAffiliate error: %v", err)
	}
	if repo.links[coupon.ID] != linkID {
		t.Fatalf("link not persisted")
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventCouponLinked {
		t.Fatalf("expected coupon_linked event, got %+v", ob.events)
	}
}

func TestLinkAffiliatePermanence(t *testing.T) {
	repo := newFakeRepository()
	storeID := uuid.New()
	coupon := &models.Coupon{ID: uuid.New(), StoreID: storeID, Code: "PROMO"}
	repo.coupons[coupon.ID] = coupon
	originalLink := uuid.New()
	repo.links[coupon.ID] = originalLink
	repo.hasEarnings = true

	otherLink := uuid.New()
	links := &fakeLinkReader{links: map[uuid.UUID]*models.StoreAffiliate{
		otherLink: {ID: otherLink, StoreID: storeID, Status: enums.AffiliateLinkStatusActive},
	}}
	svc := newCouponService(t, repo, links, &fakeOutbox{})

	err := svc.LinkAffiliate(context.Background(), LinkAffiliateInput{CouponID: coupon.ID, StoreAffiliateID: otherLink})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected permanence rejection, got %v", err)
	}
	if repo.links[coupon.ID] != originalLink {
		t.Fatalf("link should not have changed")
	}
}

func TestLinkAffiliateSameLinkIsNoop(t *testing.T) {
	repo := newFakeRepository()
	storeID := uuid.New()
	coupon := &models.Coupon{ID: uuid.New(), StoreID: storeID, Code: "PROMO"}
	repo.coupons[coupon.ID] = coupon
	linkID := uuid.New()
	repo.links[coupon.ID] = linkID
	repo.hasEarnings = true

	links := &fakeLinkReader{links: map[uuid.UUID]*models.StoreAffiliate{
		linkID: {ID: linkID, StoreID: storeID, Status: enums.AffiliateLinkStatusActive},
	}}
	ob := &fakeOutbox{}
	svc := newCouponService(t, repo, links, ob)

	if err := svc.LinkAffiliate(context.Background(), LinkAffiliateInput{CouponID: coupon.ID, StoreAffiliateID: linkID}); err != nil {
		t.Fatalf("expected noop, got %v", err)
	}
	if len(ob.events) != 0 {
		t.Fatalf("noop should not emit events")
	}
}

func TestResolveAttribution(t *testing.T) {
	repo := newFakeRepository()
	storeID := uuid.New()
	coupon := &models.Coupon{ID: uuid.New(), StoreID: storeID, Code: "PROMO10", Scope: enums.CouponScopeAll}
	repo.coupons[coupon.ID] = coupon
	linkID := uuid.New()
	repo.links[coupon.ID] = linkID
	svc := newCouponService(t, repo, &fakeLinkReader{}, &fakeOutbox{})

	attribution, err := svc.ResolveAttribution(context.Background(), storeID, "promo10")
	if err != nil {
		t.Fatalf("ResolveAttribution error: %v", err)
	}
	if attribution.StoreAffiliateID != linkID {
		t.Fatalf("unexpected link %s", attribution.StoreAffiliateID)
	}
	if attribution.Coupon.Code != "PROMO10" {
		t.Fatalf("unexpected coupon %+v", attribution.Coupon)
	}

	if _, err := svc.ResolveAttribution(context.Background(), storeID, "MISSING"); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
