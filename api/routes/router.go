package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendalink/affiliates-backend/api/controllers"
	webhookcontrollers "github.com/vendalink/affiliates-backend/api/controllers/webhooks"
	"github.com/vendalink/affiliates-backend/api/middleware"
	"github.com/vendalink/affiliates-backend/internal/affiliates"
	"github.com/vendalink/affiliates-backend/internal/coupons"
	"github.com/vendalink/affiliates-backend/internal/earnings"
	"github.com/vendalink/affiliates-backend/internal/rules"
	"github.com/vendalink/affiliates-backend/internal/withdrawals"
	"github.com/vendalink/affiliates-backend/pkg/auth/session"
	"github.com/vendalink/affiliates-backend/pkg/config"
	"github.com/vendalink/affiliates-backend/pkg/db"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	"github.com/vendalink/affiliates-backend/pkg/logger"
	"github.com/vendalink/affiliates-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionChecker session.AccessSessionChecker,
	affiliateService affiliates.Service,
	ruleService rules.Service,
	couponService coupons.Service,
	earningService earnings.Service,
	withdrawalService withdrawals.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	orderHookPolicy := middleware.NewWebhookRateLimitPolicy(
		"orders",
		cfg.RateLimit.WebhookWindow,
		cfg.RateLimit.WebhookIPLimit,
		cfg.RateLimit.WebhookStoreLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.WebhookRateLimit(orderHookPolicy, redisClient, logg))
		r.Post("/orders", webhookcontrollers.Orders(earningService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		// Store staff surface: link lifecycle, rules, coupons, overrides.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(logg, enums.RoleMerchant, enums.RoleAdmin))
			r.Use(middleware.StoreContext(logg))

			r.Route("/v1/affiliates", func(r chi.Router) {
				r.Post("/", controllers.AffiliateCreate(affiliateService, logg))
			})
			r.Route("/v1/links", func(r chi.Router) {
				r.Get("/", controllers.LinkListForStore(affiliateService, logg))
				r.Post("/", controllers.LinkInvite(affiliateService, logg))
				r.Patch("/{linkId}/commission", controllers.LinkUpdateCommission(affiliateService, logg))
				r.Route("/{linkId}/rules", func(r chi.Router) {
					r.Get("/", controllers.RuleList(ruleService, affiliateService, logg))
					r.Post("/", controllers.RuleCreate(ruleService, affiliateService, logg))
					r.Delete("/{ruleId}", controllers.RuleDelete(ruleService, affiliateService, logg))
				})
			})
			r.Route("/v1/coupons", func(r chi.Router) {
				r.Get("/", controllers.CouponList(couponService, logg))
				r.Post("/", controllers.CouponRegister(couponService, logg))
				r.Post("/{couponId}/affiliate", controllers.CouponLinkAffiliate(couponService, affiliateService, logg))
			})
			r.Patch("/v1/earnings/{earningId}/status", controllers.EarningUpdateStatus(earningService, logg))
			r.Route("/v1/withdrawals", func(r chi.Router) {
				r.Get("/", controllers.WithdrawalListForStore(withdrawalService, logg))
				r.Post("/{requestId}/settle", controllers.WithdrawalSettle(withdrawalService, logg))
			})
		})

		// Affiliate surface: own links, ledger, withdrawals.
		r.Route("/v1/affiliate", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAffiliate, logg))
			r.Use(middleware.AffiliateContext(logg))

			r.Route("/links", func(r chi.Router) {
				r.Get("/", controllers.LinkListForAffiliate(affiliateService, logg))
				r.Post("/{linkId}/accept", controllers.LinkAccept(affiliateService, logg))
				r.Post("/{linkId}/reject", controllers.LinkReject(affiliateService, logg))
			})
			r.Route("/earnings", func(r chi.Router) {
				r.Get("/", controllers.EarningList(earningService, logg))
				r.Get("/summary", controllers.EarningSummary(earningService, logg))
			})
			r.Route("/withdrawals", func(r chi.Router) {
				r.Get("/", controllers.WithdrawalListForAffiliate(withdrawalService, logg))
				r.Post("/", controllers.WithdrawalRequest(withdrawalService, logg))
			})
		})
	})

	return r
}
