package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vendora-hq/vendora-backend/api/routes"
	"github.com/vendora-hq/vendora-backend/internal/affiliates"
	"github.com/vendora-hq/vendora-backend/internal/analytics"
	"github.com/vendora-hq/vendora-backend/internal/catalog"
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
	"github.com/vendora-hq/vendora-backend/pkg/metrics"
	"github.com/vendora-hq/vendora-backend/pkg/migrate"
	"github.com/vendora-hq/vendora-backend/pkg/redis"
	"github.com/vendora-hq/vendora-backend/pkg/stripe"
)

const webhookIdempotencyTTL = 72 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	params, err := buildRouterParams(cfg, logg, dbClient, redisClient, stripeClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(params),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildRouterParams(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, stripeClient *stripe.Client) (routes.RouterParams, error) {
	gormDB := dbClient.DB()

	catalogSvc, err := catalog.NewService(catalog.NewRepository(gormDB))
	if err != nil {
		return routes.RouterParams{}, err
	}
	affiliateSvc, err := affiliates.NewService(affiliates.NewRepository(gormDB))
	if err != nil {
		return routes.RouterParams{}, err
	}

	rulesRepo := commission.NewRepository(gormDB)
	rulesSvc, err := commission.NewRulesService(rulesRepo)
	if err != nil {
		return routes.RouterParams{}, err
	}
	resolver, err := commission.NewResolver(catalogSvc, rulesRepo)
	if err != nil {
		return routes.RouterParams{}, err
	}
	calculator, err := commission.NewCalculator(catalogSvc, resolver, affiliateSvc)
	if err != nil {
		return routes.RouterParams{}, err
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(gormDB))
	if err != nil {
		return routes.RouterParams{}, err
	}

	ordersRepo := orders.NewRepository(gormDB)
	settlementSvc, err := settlement.NewService(settlement.ServiceParams{
		Ledger:    ledgerSvc,
		Catalog:   catalogSvc,
		Orders:    ordersRepo,
		Processor: settlement.NewProcessor(stripeClient),
		Config:    cfg.Payouts,
		Logger:    logg,
		Metrics:   metrics.NewSettlementMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return routes.RouterParams{}, err
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:       ordersRepo,
		Tx:         dbClient,
		Catalog:    catalogSvc,
		Calculator: calculator,
		Affiliates: affiliateSvc,
		Ledger:     ledgerSvc,
		Settlement: settlementSvc,
		Logger:     logg,
	})
	if err != nil {
		return routes.RouterParams{}, err
	}

	refundsSvc, err := refunds.NewService(refunds.ServiceParams{
		Orders:     ordersSvc,
		OrdersRepo: ordersRepo,
		Ledger:     ledgerSvc,
		Processor:  settlement.NewProcessor(stripeClient),
		Refunds:    refunds.NewRefundClient(stripeClient),
		Config:     cfg.Payouts,
		Logger:     logg,
	})
	if err != nil {
		return routes.RouterParams{}, err
	}

	tiersRepo := tiers.NewRepository(gormDB)
	tiersSvc, err := tiers.NewService(tiersRepo, dbClient, cfg.Tiers, logg)
	if err != nil {
		return routes.RouterParams{}, err
	}

	analyticsSvc, err := analytics.NewService(analytics.NewRepository(gormDB))
	if err != nil {
		return routes.RouterParams{}, err
	}

	webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders:  ordersSvc,
		Refunds: refundsSvc,
		Vendors: catalogSvc,
		Logger:  logg,
	})
	if err != nil {
		return routes.RouterParams{}, err
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookIdempotencyTTL, "stripe-webhook")
	if err != nil {
		return routes.RouterParams{}, err
	}

	return routes.RouterParams{
		Config:             cfg,
		Logger:             logg,
		DB:                 dbClient,
		Redis:              redisClient,
		RulesService:       rulesSvc,
		Resolver:           resolver,
		Calculator:         calculator,
		OrdersService:      ordersSvc,
		RefundsService:     refundsSvc,
		LedgerService:      ledgerSvc,
		SettlementService:  settlementSvc,
		TiersService:       tiersSvc,
		TiersRepo:          tiersRepo,
		AnalyticsService:   analyticsSvc,
		StripeClient:       stripeClient,
		StripeWebhooks:     webhookSvc,
		StripeWebhookGuard: webhookGuard,
	}, nil
}
