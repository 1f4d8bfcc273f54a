package affiliates

import (
	"context"
	"errors"
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
	affiliates map[uuid.UUID]*models.Affiliate
	links      map[uuid.UUID]*models.StoreAffiliate
	stores     map[uuid.UUID]*models.Store
	createErr  error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		affiliates: map[uuid.UUID]*models.Affiliate{},
		links:      map[uuid.UUID]*models.StoreAffiliate{},
		stores:     map[uuid.UUID]*models.Store{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateAffiliate(ctx context.Context, affiliate *models.Affiliate) error {
	if f.createErr != nil {
		return f.createErr
	}
	affiliate.ID = uuid.New()
	f.affiliates[affiliate.ID] = affiliate
	return nil
}

func (f *fakeRepository) GetAffiliateByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error) {
	if affiliate, ok := f.affiliates[id]; ok {
		return affiliate, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetAffiliateByEmail(ctx context.Context, email string) (*models.Affiliate, error) {
	for _, affiliate := range f.affiliates {
		if affiliate.Email == email {
			return affiliate, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateLink(ctx context.Context, link *models.StoreAffiliate) error {
	if f.createErr != nil {
		return f.createErr
	}
	link.ID = uuid.New()
	f.links[link.ID] = link
	return nil
}

func (f *fakeRepository) GetLinkByID(ctx context.Context, id uuid.UUID) (*models.StoreAffiliate, error) {
	if link, ok := f.links[id]; ok {
		copied := *link
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetLinkByPair(ctx context.Context, storeID, affiliateID uuid.UUID) (*models.StoreAffiliate, error) {
	for _, link := range f.links {
		if link.StoreID == storeID && link.AffiliateID == affiliateID {
			return link, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpdateLink(ctx context.Context, link *models.StoreAffiliate) error {
	f.links[link.ID] = link
	return nil
}

func (f *fakeRepository) ListLinksByStore(ctx context.Context, storeID uuid.UUID) ([]models.StoreAffiliate, error) {
	var out []models.StoreAffiliate
	for _, link := range f.links {
		if link.StoreID == storeID {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListLinksByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]models.StoreAffiliate, error) {
	var out []models.StoreAffiliate
	for _, link := range f.links {
		if link.AffiliateID == affiliateID {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	if store, ok := f.stores[id]; ok {
		return store, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newAffiliateService(t *testing.T, repo Repository, ob *fakeOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, fakeTxRunner{}, ob)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestCreateAffiliateNormalizesEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := newAffiliateService(t, repo, &fakeOutbox{})

	affiliate, err := svc.CreateAffiliate(context.Background(), CreateAffiliateInput{
		Name:   "Maria Souza",
		Email:  " Maria@Example.COM ",
		PixKey: "maria@example.com",
	})
	if err != nil {
		t.Fatalf("CreateAffiliate error: %v", err)
	}
	if affiliate.Email != "maria@example.com" {
		t.Fatalf("expected normalized email, got %q", affiliate.Email)
	}
}

func TestCreateAffiliateDuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	repo.createErr = errors.New(`duplicate key value violates unique constraint "ux_affiliates_email"`)
	svc := newAffiliateService(t, repo, &fakeOutbox{})

	_, err := svc.CreateAffiliate(context.Background(), CreateAffiliateInput{
		Name:   "Maria",
		Email:  "maria@example.com",
		PixKey: "maria@example.com",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestInviteCreatesInvitedLink(t *testing.T) {
	repo := newFakeRepository()
	storeID := uuid.New()
	repo.stores[storeID] = &models.Store{ID: storeID, Name: "Loja", MaturityDays: 7}
	affiliate := &models.Affiliate{ID: uuid.New(), IsActive: true}
	repo.affiliates[affiliate.ID] = affiliate
	svc := newAffiliateService(t, repo, &fakeOutbox{})

	link, err := svc.Invite(context.Background(), InviteInput{
		StoreID:                storeID,
		AffiliateID:            affiliate.ID,
		DefaultCommissionValue: decimal.RequireFromString("10"),
	})
	if err != nil {
		t.Fatalf("Invite error: %v", err)
	}
	if link.Status != enums.AffiliateLinkStatusInvited {
		t.Fatalf("expected invited link, got %s", link.Status)
	}
	if link.DefaultCommissionType != enums.CommissionTypePercentage {
		t.Fatalf("expected percentage default, got %s", link.DefaultCommissionType)
	}
	if !link.CommissionEnabled {
		t.Fatalf("expected commission enabled by default")
	}
}

func TestAcceptActivatesAndEmits(t *testing.T) {
	repo := newFakeRepository()
	link := &models.StoreAffiliate{
		ID:          uuid.New(),
		StoreID:     uuid.New(),
		AffiliateID: uuid.New(),
		Status:      enums.AffiliateLinkStatusInvited,
	}
	repo.links[link.ID] = link
	ob := &fakeOutbox{}
	svc := newAffiliateService(t, repo, ob)

	updated, err := svc.Accept(context.Background(), link.ID, link.AffiliateID)
	if err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	if updated.Status != enums.AffiliateLinkStatusActive {
		t.Fatalf("expected active link, got %s", updated.Status)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventAffiliateLinkActivated {
		t.Fatalf("expected activation event, got %+v", ob.events)
	}
}

func TestAcceptRejectsWrongAffiliate(t *testing.T) {
	repo := newFakeRepository()
	link := &models.StoreAffiliate{
		ID:          uuid.New(),
		AffiliateID: uuid.New(),
		Status:      enums.AffiliateLinkStatusInvited,
	}
	repo.links[link.ID] = link
	svc := newAffiliateService(t, repo, &fakeOutbox{})

	if _, err := svc.Accept(context.Background(), link.ID, uuid.New()); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAcceptRequiresInvitedState(t *testing.T) {
	repo := newFakeRepository()
	link := &models.StoreAffiliate{
		ID:          uuid.New(),
		AffiliateID: uuid.New(),
		Status:      enums.AffiliateLinkStatusActive,
	}
	repo.links[link.ID] = link
	svc := newAffiliateService(t, repo, &fakeOutbox{})

	if _, err := svc.Accept(context.Background(), link.ID, link.AffiliateID); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdateDefaultCommissionValidates(t *testing.T) {
	repo := newFakeRepository()
	link := &models.StoreAffiliate{
		ID:                    uuid.New(),
		Status:                enums.AffiliateLinkStatusActive,
		DefaultCommissionType: enums.CommissionTypePercentage,
	}
	repo.links[link.ID] = link
	svc := newAffiliateService(t, repo, &fakeOutbox{})

	tooHigh := decimal.RequireFromString("150")
	_, err := svc.UpdateDefaultCommission(context.Background(), UpdateDefaultCommissionInput{
		StoreAffiliateID: link.ID,
		Value:            &tooHigh,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	disabled := false
	updated, err := svc.UpdateDefaultCommission(context.Background(), UpdateDefaultCommissionInput{
		StoreAffiliateID:  link.ID,
		CommissionEnabled: &disabled,
	})
	if err != nil {
		t.Fatalf("UpdateDefaultCommission error: %v", err)
	}
	if updated.CommissionEnabled {
		t.Fatalf("expected commission disabled")
	}
}
