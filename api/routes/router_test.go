package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vendalink/affiliates-backend/internal/affiliates"
	"github.com/vendalink/affiliates-backend/internal/coupons"
	"github.com/vendalink/affiliates-backend/internal/earnings"
	"github.com/vendalink/affiliates-backend/internal/rules"
	"github.com/vendalink/affiliates-backend/internal/withdrawals"
	pkgauth "github.com/vendalink/affiliates-backend/pkg/auth"
	"github.com/vendalink/affiliates-backend/pkg/auth/session"
	"github.com/vendalink/affiliates-backend/pkg/config"
	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	"github.com/vendalink/affiliates-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAffiliateService struct{}

func (stubAffiliateService) CreateAffiliate(ctx context.Context, input affiliates.CreateAffiliateInput) (*models.Affiliate, error) {
	return &models.Affiliate{ID: uuid.New(), Name: input.Name, Email: input.Email}, nil
}

func (stubAffiliateService) GetAffiliate(ctx context.Context, id uuid.UUID) (*models.Affiliate, error) {
	return &models.Affiliate{ID: id}, nil
}

func (stubAffiliateService) Invite(ctx context.Context, input affiliates.InviteInput) (*models.StoreAffiliate, error) {
	return &models.StoreAffiliate{ID: uuid.New(), StoreID: input.StoreID, AffiliateID: input.AffiliateID}, nil
}

func (stubAffiliateService) Accept(ctx context.Context, linkID, affiliateID uuid.UUID) (*models.StoreAffiliate, error) {
	return &models.StoreAffiliate{ID: linkID, AffiliateID: affiliateID}, nil
}

func (stubAffiliateService) Reject(ctx context.Context, linkID, affiliateID uuid.UUID) (*models.StoreAffiliate, error) {
	return &models.StoreAffiliate{ID: linkID, AffiliateID: affiliateID}, nil
}

func (stubAffiliateService) UpdateDefaultCommission(ctx context.Context, input affiliates.UpdateDefaultCommissionInput) (*models.StoreAffiliate, error) {
	return &models.StoreAffiliate{ID: input.StoreAffiliateID}, nil
}

func (stubAffiliateService) GetLink(ctx context.Context, id uuid.UUID) (*models.StoreAffiliate, error) {
	return &models.StoreAffiliate{ID: id}, nil
}

func (stubAffiliateService) ListStoreLinks(ctx context.Context, storeID uuid.UUID) ([]models.StoreAffiliate, error) {
	return nil, nil
}

func (stubAffiliateService) ListAffiliateLinks(ctx context.Context, affiliateID uuid.UUID) ([]models.StoreAffiliate, error) {
	return nil, nil
}

type stubRuleService struct{}

func (stubRuleService) CreateRule(ctx context.Context, input rules.CreateRuleInput) (*models.CommissionRule, error) {
	return &models.CommissionRule{ID: uuid.New()}, nil
}

func (stubRuleService) ListRules(ctx context.Context, storeAffiliateID uuid.UUID) ([]models.CommissionRule, error) {
	return nil, nil
}

func (stubRuleService) DeleteRule(ctx context.Context, storeAffiliateID, ruleID uuid.UUID) error {
	return nil
}

type stubCouponService struct{}

func (stubCouponService) RegisterCoupon(ctx context.Context, input coupons.RegisterCouponInput) (*models.Coupon, error) {
	return &models.Coupon{ID: uuid.New(), Code: input.Code}, nil
}

func (stubCouponService) LinkAffiliate(ctx context.Context, input coupons.LinkAffiliateInput) error {
	return nil
}

func (stubCouponService) ResolveAttribution(ctx context.Context, storeID uuid.UUID, code string) (*coupons.Attribution, error) {
	return nil, nil
}

func (stubCouponService) ListStoreCoupons(ctx context.Context, storeID uuid.UUID) ([]models.Coupon, error) {
	return nil, nil
}

type stubEarningService struct{}

func (stubEarningService) RecordOrder(ctx context.Context, event earnings.OrderEvent) (*models.AffiliateEarning, error) {
	return nil, nil
}

func (stubEarningService) OnOrderStatusChanged(ctx context.Context, event earnings.OrderEvent) error {
	return nil
}

func (stubEarningService) UpdateStatus(ctx context.Context, input earnings.UpdateStatusInput) (*models.AffiliateEarning, error) {
	return &models.AffiliateEarning{ID: input.EarningID}, nil
}

func (stubEarningService) GetEarning(ctx context.Context, id uuid.UUID) (*models.AffiliateEarning, error) {
	return &models.AffiliateEarning{ID: id}, nil
}

func (stubEarningService) ListEarnings(ctx context.Context, filter earnings.ListFilter) (*earnings.Page, error) {
	return &earnings.Page{}, nil
}

func (stubEarningService) Aggregates(ctx context.Context, filter earnings.AggregateFilter) (*earnings.Summary, error) {
	return &earnings.Summary{}, nil
}

func (stubEarningService) ReconcileFlagged(ctx context.Context, limit int) (int, error) {
	return 0, nil
}

type stubWithdrawalService struct{}

func (stubWithdrawalService) RequestWithdrawal(ctx context.Context, input withdrawals.RequestInput) (*models.WithdrawalRequest, error) {
	return &models.WithdrawalRequest{ID: uuid.New(), AffiliateID: input.AffiliateID}, nil
}

func (stubWithdrawalService) Settle(ctx context.Context, input withdrawals.SettleInput) (*models.WithdrawalRequest, error) {
	return &models.WithdrawalRequest{ID: input.RequestID}, nil
}

func (stubWithdrawalService) GetRequest(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return &models.WithdrawalRequest{ID: id}, nil
}

func (stubWithdrawalService) ListRequests(ctx context.Context, filter withdrawals.ListFilter) (*withdrawals.Page, error) {
	return &withdrawals.Page{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil,
		stubSessionChecker{},
		stubAffiliateService{},
		stubRuleService{},
		stubCouponService{},
		stubEarningService{},
		stubWithdrawalService{},
	)
}

func merchantToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	storeID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:  uuid.New(),
		StoreID: &storeID,
		Role:    enums.RoleMerchant,
		JTI:     session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func affiliateToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	affiliateID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:      uuid.New(),
		AffiliateID: &affiliateID,
		Role:        enums.RoleAffiliate,
		JTI:         session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+merchantToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestStoreSurfaceRejectsAffiliateRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/links", nil)
	req.Header.Set("Authorization", "Bearer "+affiliateToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for affiliate on store surface got %d", resp.Code)
	}
}

func TestStoreSurfaceAllowsMerchantRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/links", nil)
	req.Header.Set("Authorization", "Bearer "+merchantToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for merchant links list got %d", resp.Code)
	}
}

func TestAffiliateSurfaceRejectsMerchantRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/affiliate/links", nil)
	req.Header.Set("Authorization", "Bearer "+merchantToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for merchant on affiliate surface got %d", resp.Code)
	}
}

func TestAffiliateSurfaceAllowsAffiliateRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/affiliate/earnings", nil)
	req.Header.Set("Authorization", "Bearer "+affiliateToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for affiliate earnings list got %d", resp.Code)
	}
}
