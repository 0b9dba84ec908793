package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/leaseflow/leaseflow-backend/internal/audit"
	"github.com/leaseflow/leaseflow-backend/internal/cron"
	"github.com/leaseflow/leaseflow-backend/internal/leases"
	"github.com/leaseflow/leaseflow-backend/internal/occupancy"
	"github.com/leaseflow/leaseflow-backend/internal/payments"
	"github.com/leaseflow/leaseflow-backend/pkg/config"
	"github.com/leaseflow/leaseflow-backend/pkg/db"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	"github.com/leaseflow/leaseflow-backend/pkg/metrics"
	"github.com/leaseflow/leaseflow-backend/pkg/migrate"
	"github.com/leaseflow/leaseflow-backend/pkg/outbox"
	"github.com/leaseflow/leaseflow-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry, err := buildRegistry(cfg, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, dbClient *db.Client, logg *logger.Logger) (*cron.Registry, error) {
	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)
	auditSvc, err := audit.NewService(audit.NewRepository(conn))
	if err != nil {
		return nil, err
	}

	leaseExpiryJob, err := cron.NewLeaseExpiryJob(cron.LeaseExpiryJobParams{
		Logger:           logg,
		DB:               dbClient,
		LeaseReader:      leases.NewRepository(conn),
		Outbox:           outboxSvc,
		Audit:            auditSvc,
		ExpiringSoonDays: cfg.Cron.ExpiringSoonDays,
	})
	if err != nil {
		return nil, err
	}

	occupancySvc, err := occupancy.NewService(occupancy.NewRepository(conn), dbClient, outboxSvc, logg)
	if err != nil {
		return nil, err
	}
	occupancySyncJob, err := cron.NewOccupancySyncJob(cron.OccupancySyncJobParams{
		Logger:    logg,
		Occupancy: occupancySvc,
	})
	if err != nil {
		return nil, err
	}

	paymentsSvc, err := payments.NewService(payments.NewRepository(conn), dbClient, auditSvc, outboxSvc)
	if err != nil {
		return nil, err
	}
	paymentOverdueJob, err := cron.NewPaymentOverdueJob(cron.PaymentOverdueJobParams{
		Logger:   logg,
		Payments: paymentsSvc,
	})
	if err != nil {
		return nil, err
	}

	return cron.NewRegistry(leaseExpiryJob, occupancySyncJob, paymentOverdueJob), nil
}
