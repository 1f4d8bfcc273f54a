package earnings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendalink/affiliates-backend/internal/coupons"
	"github.com/vendalink/affiliates-backend/internal/rules"
	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/outbox"
	"github.com/vendalink/affiliates-backend/pkg/pagination"
)

type fakeRepository struct {
	byID map[uuid.UUID]*models.AffiliateEarning
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{byID: map[uuid.UUID]*models.AffiliateEarning{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, earning *models.AffiliateEarning) error {
	earning.ID = uuid.New()
	earning.CreatedAt = time.Now()
	copied := *earning
	f.byID[earning.ID] = &copied
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, earning *models.AffiliateEarning) error {
	copied := *earning
	f.byID[earning.ID] = &copied
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AffiliateEarning, error) {
	if earning, ok := f.byID[id]; ok {
		copied := *earning
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetByOrderLink(ctx context.Context, orderID, storeAffiliateID uuid.UUID) (*models.AffiliateEarning, error) {
	for _, earning := range f.byID {
		if earning.OrderID == orderID && earning.StoreAffiliateID == storeAffiliateID {
			copied := *earning
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.AffiliateEarning, error) {
	var out []models.AffiliateEarning
	for _, earning := range f.byID {
		if earning.OrderID == orderID {
			out = append(out, *earning)
		}
	}
	return out, nil
}

func (f *fakeRepository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor) ([]models.AffiliateEarning, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (f *fakeRepository) ListFlaggedForReconciliation(ctx context.Context, limit int) ([]models.AffiliateEarning, error) {
	var out []models.AffiliateEarning
	for _, earning := range f.byID {
		if earning.NeedsReconciliation && earning.DeliveredAt != nil {
			out = append(out, *earning)
		}
	}
	return out, nil
}

func (f *fakeRepository) Aggregate(ctx context.Context, filter AggregateFilter, now time.Time) (*Summary, error) {
	return &Summary{}, nil
}

func (f *fakeRepository) AvailableBalance(ctx context.Context, affiliateID, storeID uuid.UUID, now time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeRepository) ListAvailable(ctx context.Context, affiliateID, storeID uuid.UUID, now time.Time) ([]models.AffiliateEarning, error) {
	return nil, nil
}

type fakeLinkReader struct {
	links  map[uuid.UUID]*models.StoreAffiliate
	stores map[uuid.UUID]*models.Store
}

func (f *fakeLinkReader) GetLinkByID(ctx context.Context, id uuid.UUID) (*models.StoreAffiliate, error) {
	if link, ok := f.links[id]; ok {
		return link, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLinkReader) GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	if store, ok := f.stores[id]; ok {
		return store, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeRuleLister struct {
	ruleSet []models.CommissionRule
}

func (f *fakeRuleLister) ListByStoreAffiliate(ctx context.Context, storeAffiliateID uuid.UUID) ([]models.CommissionRule, error) {
	return f.ruleSet, nil
}

type fakeAttribution struct {
	attribution *coupons.Attribution
	err         error
}

func (f *fakeAttribution) ResolveAttribution(ctx context.Context, storeID uuid.UUID, code string) (*coupons.Attribution, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.attribution, nil
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

func (f *fakeOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	for _, existing := range f.events {
		if existing.EventType == event.EventType && existing.AggregateID == event.AggregateID {
			return nil
		}
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) count(eventType enums.OutboxEventType) int {
	n := 0
	for _, event := range f.events {
		if event.EventType == eventType {
			n++
		}
	}
	return n
}

type harness struct {
	repo  *fakeRepository
	links *fakeLinkReader
	ob    *fakeOutbox
	svc   Service

	storeID uuid.UUID
	linkID  uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	storeID := uuid.New()
	link := &models.StoreAffiliate{
		ID:                     uuid.New(),
		StoreID:                storeID,
		AffiliateID:            uuid.New(),
		Status:                 enums.AffiliateLinkStatusActive,
		DefaultCommissionType:  enums.CommissionTypePercentage,
		DefaultCommissionValue: decimal.RequireFromString("10"),
		CommissionEnabled:      true,
	}
	links := &fakeLinkReader{
		links:  map[uuid.UUID]*models.StoreAffiliate{link.ID: link},
		stores: map[uuid.UUID]*models.Store{storeID: {ID: storeID, MaturityDays: 7}},
	}
	repo := newFakeRepository()
	ob := &fakeOutbox{}
	svc, err := NewService(repo, links, &fakeRuleLister{}, &fakeAttribution{}, fakeTxRunner{}, ob, nil, Config{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return &harness{repo: repo, links: links, ob: ob, svc: svc, storeID: storeID, linkID: link.ID}
}

func (h *harness) orderEvent(status enums.OrderStatus) OrderEvent {
	return OrderEvent{
		OrderID:          uuid.New(),
		StoreID:          h.storeID,
		Status:           status,
		StoreAffiliateID: &h.linkID,
		OrderCreatedAt:   time.Now().Add(-time.Hour),
		Items: []rules.OrderItem{
			{ProductID: uuid.New(), UnitPrice: decimal.RequireFromString("50"), Quantity: 2},
		},
	}
}

func TestRecordOrderCreatesPendingEarning(t *testing.T) {
	h := newHarness(t)
	event := h.orderEvent(enums.OrderStatusCreated)

	earning, err := h.svc.RecordOrder(context.Background(), event)
	if err != nil {
		t.Fatalf("RecordOrder error: %v", err)
	}
	if earning == nil {
		t.Fatalf("expected an earning")
	}
	if earning.Status != enums.EarningStatusPending {
		t.Fatalf("expected pending, got %s", earning.Status)
	}
	if !earning.CommissionAmount.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("expected 10%% of 100 = 10, got %s", earning.CommissionAmount)
	}
	if earning.CommissionAvailableAt != nil {
		t.Fatalf("maturity should not be stamped before delivery")
	}
	if h.ob.count(enums.EventEarningRecorded) != 1 {
		t.Fatalf("expected one recorded event")
	}
}

func TestRecordOrderIsIdempotent(t *testing.T) {
	h := newHarness(t)
	event := h.orderEvent(enums.OrderStatusCreated)

	first, err := h.svc.RecordOrder(context.Background(), event)
	if err != nil {
		t.Fatalf("first RecordOrder error: %v", err)
	}
	second, err := h.svc.RecordOrder(context.Background(), event)
	if err != nil {
		t.Fatalf("second RecordOrder error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("replay created a second row")
	}
	if !first.CommissionAmount.Equal(second.CommissionAmount) {
		t.Fatalf("replay changed the commission: %s vs %s", first.CommissionAmount, second.CommissionAmount)
	}
	if len(h.repo.byID) != 1 {
		t.Fatalf("expected exactly one ledger row, got %d", len(h.repo.byID))
	}
	if h.ob.count(enums.EventEarningRecorded) != 1 {
		t.Fatalf("replay should not re-emit the recorded event")
	}
}

func TestDeliveryStampsMaturityExactlyOnce(t *testing.T) {
	h := newHarness(t)
	event := h.orderEvent(enums.OrderStatusCreated)
	if _, err := h.svc.RecordOrder(context.Background(), event); err != nil {
		t.Fatalf("RecordOrder error: %v", err)
	}

	deliveredAt := time.Now().Add(-time.Minute)
	event.Status = enums.OrderStatusDelivered
	event.DeliveredAt = &deliveredAt
	if err := h.svc.OnOrderStatusChanged(context.Background(), event); err != nil {
		t.Fatalf("OnOrderStatusChanged error: %v", err)
	}

	var earning *models.AffiliateEarning
	for _, row := range h.repo.byID {
		earning = row
	}
	if earning.CommissionAvailableAt == nil {
		t.Fatalf("maturity not stamped")
	}
	expected := deliveredAt.Add(7 * 24 * time.Hour)
	if !earning.CommissionAvailableAt.Equal(expected) {
		t.Fatalf("expected available at %v, got %v", expected, *earning.CommissionAvailableAt)
	}
	if earning.NeedsReconciliation {
		t.Fatalf("true delivery timestamp should not flag reconciliation")
	}

	// Replaying the delivery must not move the stamp.
	laterDelivery := deliveredAt.Add(time.Hour)
	event.DeliveredAt = &laterDelivery
	if err := h.svc.OnOrderStatusChanged(context.Background(), event); err != nil {
		t.Fatalf("replay error: %v", err)
	}
	for _, row := range h.repo.byID {
		earning = row
	}
	if !earning.CommissionAvailableAt.Equal(expected) {
		t.Fatalf("maturity was recomputed on replay")
	}
	if h.ob.count(enums.EventEarningMatured) != 1 {
		t.Fatalf("expected exactly one matured event")
	}
}

func TestDeliveryWithoutTimestampFallsBackAndFlags(t *testing.T) {
	h := newHarness(t)
	event := h.orderEvent(enums.OrderStatusDelivered)

	earning, err := h.svc.RecordOrder(context.Background(), event)
	if err != nil {
		t.Fatalf("RecordOrder error: %v", err)
	}
	if earning.CommissionAvailableAt == nil {
		t.Fatalf("fallback should still stamp availability")
	}
	expected := event.OrderCreatedAt.Add(7 * 24 * time.Hour)
	if !earning.CommissionAvailableAt.Equal(expected) {
		t.Fatalf("expected created_at fallback, got %v", *earning.CommissionAvailableAt)
	}
	if !earning.NeedsReconciliation {
		t.Fatalf("fallback must flag the earning for reconciliation")
	}

	// The true timestamp arrives later and replaces the fallback.
	deliveredAt := event.OrderCreatedAt.Add(30 * time.Minute)
	event.DeliveredAt = &deliveredAt
	if err := h.svc.OnOrderStatusChanged(context.Background(), event); err != nil {
		t.Fatalf("OnOrderStatusChanged error: %v", err)
	}
	stored, err := h.repo.GetByID(context.Background(), earning.ID)
	if err != nil {
		t.Fatalf("load earning: %v", err)
	}
	if stored.NeedsReconciliation {
		t.Fatalf("reconciliation flag should be cleared")
	}
	if !stored.CommissionAvailableAt.Equal(deliveredAt.Add(7 * 24 * time.Hour)) {
		t.Fatalf("availability should follow the true delivery timestamp")
	}
}

func TestCancellationWinsUnlessPaid(t *testing.T) {
	h := newHarness(t)
	event := h.orderEvent(enums.OrderStatusDelivered)
	deliveredAt := time.Now().Add(-10 * 24 * time.Hour)
	event.DeliveredAt = &deliveredAt

	earning, err := h.svc.RecordOrder(context.Background(), event)
	if err != nil {
		t.Fatalf("RecordOrder error: %v", err)
	}

	event.Status = enums.OrderStatusCancelled
	if err := h.svc.OnOrderStatusChanged(context.Background(), event); err != nil {
		t.Fatalf("OnOrderStatusChanged error: %v", err)
	}
	stored, _ := h.repo.GetByID(context.Background(), earning.ID)
	if stored.Status != enums.EarningStatusCancelled {
		t.Fatalf("expected cancelled after matured cancellation, got %s", stored.Status)
	}

	// A paid earning stays paid even when the order cancels afterward.
	stored.Status = enums.EarningStatusPaid
	_ = h.repo.Update(context.Background(), stored)
	if err := h.svc.OnOrderStatusChanged(context.Background(), event); err != nil {
		t.Fatalf("OnOrderStatusChanged error: %v", err)
	}
	stored, _ = h.repo.GetByID(context.Background(), earning.ID)
	if stored.Status != enums.EarningStatusPaid {
		t.Fatalf("paid is terminal, got %s", stored.Status)
	}
}

func TestRecordOrderWithoutAttributionIsNoop(t *testing.T) {
	h := newHarness(t)
	event := h.orderEvent(enums.OrderStatusCreated)
	event.StoreAffiliateID = nil
	event.CouponCode = ""

	earning, err := h.svc.RecordOrder(context.Background(), event)
	if err != nil {
		t.Fatalf("RecordOrder error: %v", err)
	}
	if earning != nil {
		t.Fatalf("expected no earning without attribution")
	}
	if len(h.repo.byID) != 0 {
		t.Fatalf("no row should be written")
	}
}

func TestUpdateStatusStateMachine(t *testing.T) {
	h := newHarness(t)
	event := h.orderEvent(enums.OrderStatusCreated)
	earning, err := h.svc.RecordOrder(context.Background(), event)
	if err != nil {
		t.Fatalf("RecordOrder error: %v", err)
	}

	updated, err := h.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		EarningID: earning.ID,
		Status:    enums.EarningStatusApproved,
	})
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if updated.Status != enums.EarningStatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}

	updated, err = h.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		EarningID: earning.ID,
		Status:    enums.EarningStatusPaid,
	})
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if updated.PaidAt == nil {
		t.Fatalf("paid must stamp paid_at")
	}

	_, err = h.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		EarningID: earning.ID,
		Status:    enums.EarningStatusPending,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("paid is terminal, got %v", err)
	}
}

func TestCommissionRespectsCouponScope(t *testing.T) {
	h := newHarness(t)
	couponID := uuid.New()
	attribution := &fakeAttribution{attribution: &coupons.Attribution{
		Coupon: &coupons.CouponView{
			ID:              couponID,
			StoreID:         h.storeID,
			Code:            "PROMO",
			Scope:           enums.CouponScopeCategory,
			ScopeCategories: []string{"Bebidas"},
		},
		StoreAffiliateID: h.linkID,
	}}
	repo := newFakeRepository()
	ob := &fakeOutbox{}
	svc, err := NewService(repo, h.links, &fakeRuleLister{}, attribution, fakeTxRunner{}, ob, nil, Config{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	event := OrderEvent{
		OrderID:        uuid.New(),
		StoreID:        h.storeID,
		Status:         enums.OrderStatusCreated,
		CouponCode:     "PROMO",
		OrderCreatedAt: time.Now(),
		Items: []rules.OrderItem{
			{ProductID: uuid.New(), Category: "Bebidas", UnitPrice: decimal.RequireFromString("10"), Quantity: 1},
			{ProductID: uuid.New(), Category: "Sobremesas", UnitPrice: decimal.RequireFromString("100"), Quantity: 1},
		},
	}
	earning, err := svc.RecordOrder(context.Background(), event)
	if err != nil {
		t.Fatalf("RecordOrder error: %v", err)
	}
	if !earning.CommissionAmount.Equal(decimal.RequireFromString("1")) {
		t.Fatalf("expected commission only on the covered item, got %s", earning.CommissionAmount)
	}
	if earning.CouponID == nil || *earning.CouponID != couponID {
		t.Fatalf("coupon id not recorded")
	}
}
