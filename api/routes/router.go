package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendora-hq/vendora-backend/api/controllers"
	analyticscontrollers "github.com/vendora-hq/vendora-backend/api/controllers/analytics"
	commissioncontrollers "github.com/vendora-hq/vendora-backend/api/controllers/commission"
	ordercontrollers "github.com/vendora-hq/vendora-backend/api/controllers/orders"
	payoutcontrollers "github.com/vendora-hq/vendora-backend/api/controllers/payouts"
	vendorcontrollers "github.com/vendora-hq/vendora-backend/api/controllers/vendors"
	webhookcontrollers "github.com/vendora-hq/vendora-backend/api/controllers/webhooks"
	"github.com/vendora-hq/vendora-backend/api/middleware"
	"github.com/vendora-hq/vendora-backend/internal/analytics"
	"github.com/vendora-hq/vendora-backend/internal/commission"
	"github.com/vendora-hq/vendora-backend/internal/ledger"
	"github.com/vendora-hq/vendora-backend/internal/orders"
	"github.com/vendora-hq/vendora-backend/internal/refunds"
	"github.com/vendora-hq/vendora-backend/internal/settlement"
	"github.com/vendora-hq/vendora-backend/internal/tiers"
	stripewebhook "github.com/vendora-hq/vendora-backend/internal/webhooks/stripe"
	"github.com/vendora-hq/vendora-backend/pkg/config"
	"github.com/vendora-hq/vendora-backend/pkg/db"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
	"github.com/vendora-hq/vendora-backend/pkg/redis"
	"github.com/vendora-hq/vendora-backend/pkg/stripe"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client

	RulesService      commission.RulesService
	Resolver          commission.Resolver
	Calculator        commission.Calculator
	OrdersService     orders.Service
	RefundsService    refunds.Service
	LedgerService     ledger.Service
	SettlementService settlement.Service
	TiersService      tiers.Service
	TiersRepo         tiers.Repository
	AnalyticsService  analytics.Service

	StripeClient       *stripe.Client
	StripeWebhooks     *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	// A nil *redis.Client boxed into an interface is not a nil
	// interface, so unwrap here before handing it to consumers.
	var redisPing db.Pinger
	var idemStore redis.IdempotencyStore
	if p.Redis != nil {
		redisPing = p.Redis
		idemStore = p.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, redisPing))
	})

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhooks, p.StripeClient, p.StripeWebhookGuard, p.Logger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idemStore, p.Logger))

		r.Route("/commission", func(r chi.Router) {
			r.Post("/quote", commissioncontrollers.Quote(p.Calculator, p.Logger))
			r.Get("/products/{productId}/rate", commissioncontrollers.ProductRate(p.Resolver, p.Logger))
			r.Route("/rules", func(r chi.Router) {
				r.Post("/", commissioncontrollers.RuleCreate(p.RulesService, p.Logger))
				r.Get("/", commissioncontrollers.RuleList(p.RulesService, p.Logger))
				r.Post("/{ruleId}/deactivate", commissioncontrollers.RuleDeactivate(p.RulesService, p.Logger))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(p.OrdersService, p.Logger))
			r.Get("/{orderId}", ordercontrollers.Detail(p.OrdersService, p.Logger))
			r.Post("/{orderId}/confirm", ordercontrollers.Confirm(p.OrdersService, p.Logger))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(p.OrdersService, p.Logger))
			r.Post("/{orderId}/refund", ordercontrollers.Refund(p.RefundsService, p.Logger))
			r.Post("/{orderId}/settle", payoutcontrollers.SettleOrder(p.SettlementService, p.Logger))
			r.Get("/{orderId}/payouts", payoutcontrollers.OrderPayouts(p.LedgerService, p.Logger))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Post("/sweep", payoutcontrollers.Sweep(p.SettlementService, p.Logger))
			r.Post("/{payoutId}/retry", payoutcontrollers.RetryPayout(p.LedgerService, p.Logger))
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Post("/classify", vendorcontrollers.Classify(p.TiersService, p.Logger))
			r.Get("/{vendorId}/payouts", payoutcontrollers.VendorHistory(p.AnalyticsService, p.Logger))
			r.Get("/{vendorId}/tier-changes", vendorcontrollers.TierChanges(p.TiersRepo, p.Logger))
		})

		r.Get("/analytics/commission-summary", analyticscontrollers.CommissionSummary(p.AnalyticsService, p.Logger))
	})

	return r
}
