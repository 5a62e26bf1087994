package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vendora-hq/vendora-backend/internal/catalog"
	"github.com/vendora-hq/vendora-backend/internal/cron"
	"github.com/vendora-hq/vendora-backend/internal/ledger"
	"github.com/vendora-hq/vendora-backend/internal/orders"
	"github.com/vendora-hq/vendora-backend/internal/settlement"
	"github.com/vendora-hq/vendora-backend/internal/tiers"
	"github.com/vendora-hq/vendora-backend/pkg/config"
	"github.com/vendora-hq/vendora-backend/pkg/db"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
	"github.com/vendora-hq/vendora-backend/pkg/metrics"
	"github.com/vendora-hq/vendora-backend/pkg/migrate"
	"github.com/vendora-hq/vendora-backend/pkg/redis"
	"github.com/vendora-hq/vendora-backend/pkg/stripe"
)

// Tier reclassification looks at trailing-30d revenue; daily is
// plenty.
const tierClassifierCadence = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})
	if err := run(logg); err != nil {
		logg.Error(context.Background(), "cron worker failed", err)
		os.Exit(1)
	}
}

func run(logg *logger.Logger) error {
	boot := context.Background()
	if err := godotenv.Load(); err != nil {
		logg.Warn(boot, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(boot, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(boot, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(boot, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(boot, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(boot, "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(boot, cfg.Stripe, logg)
	if err != nil {
		return fmt.Errorf("bootstrap stripe: %w", err)
	}

	registry, err := buildRegistry(cfg, logg, dbClient, stripeClient)
	if err != nil {
		return fmt.Errorf("wire cron jobs: %w", err)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+envOrLocal(cfg.App.Env)), 0)
	if err != nil {
		return fmt.Errorf("create cron lock: %w", err)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Cycle:    cfg.Payouts.SweepInterval,
	})
	if err != nil {
		return fmt.Errorf("create cron service: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("cron worker stopped unexpectedly: %w", err)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
	return nil
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, stripeClient *stripe.Client) (*cron.Registry, error) {
	gormDB := dbClient.DB()

	catalogSvc, err := catalog.NewService(catalog.NewRepository(gormDB))
	if err != nil {
		return nil, err
	}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(gormDB))
	if err != nil {
		return nil, err
	}
	settlementSvc, err := settlement.NewService(settlement.ServiceParams{
		Ledger:    ledgerSvc,
		Catalog:   catalogSvc,
		Orders:    orders.NewRepository(gormDB),
		Processor: settlement.NewProcessor(stripeClient),
		Config:    cfg.Payouts,
		Logger:    logg,
		Metrics:   metrics.NewSettlementMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return nil, err
	}
	tiersSvc, err := tiers.NewService(tiers.NewRepository(gormDB), dbClient, cfg.Tiers, logg)
	if err != nil {
		return nil, err
	}

	sweepJob, err := cron.NewPayoutSweepJob(cron.PayoutSweepJobParams{
		Logger:     logg,
		Settlement: settlementSvc,
	})
	if err != nil {
		return nil, err
	}
	tierJob, err := cron.NewTierClassifierJob(cron.TierClassifierJobParams{
		Logger: logg,
		Tiers:  tiersSvc,
	})
	if err != nil {
		return nil, err
	}

	registry := cron.NewRegistry()
	registry.Register(sweepJob, cfg.Payouts.SweepInterval)
	registry.Register(tierJob, tierClassifierCadence)
	return registry, nil
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
