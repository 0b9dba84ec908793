package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/leaseflow/leaseflow-backend/api/routes"
	"github.com/leaseflow/leaseflow-backend/internal/audit"
	"github.com/leaseflow/leaseflow-backend/internal/leases"
	"github.com/leaseflow/leaseflow-backend/internal/maintenance"
	"github.com/leaseflow/leaseflow-backend/internal/occupancy"
	"github.com/leaseflow/leaseflow-backend/internal/payments"
	"github.com/leaseflow/leaseflow-backend/internal/properties"
	"github.com/leaseflow/leaseflow-backend/pkg/config"
	"github.com/leaseflow/leaseflow-backend/pkg/db"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	"github.com/leaseflow/leaseflow-backend/pkg/migrate"
	"github.com/leaseflow/leaseflow-backend/pkg/outbox"
	"github.com/leaseflow/leaseflow-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	svcs, err := buildServices(dbClient, logg)
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
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func buildServices(dbClient *db.Client, logg *logger.Logger) (routes.Services, error) {
	conn := dbClient.DB()
	auditSvc, err := audit.NewService(audit.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	propertiesSvc, err := properties.NewService(properties.NewRepository(conn), dbClient, auditSvc)
	if err != nil {
		return routes.Services{}, err
	}
	leasesSvc, err := leases.NewService(leases.NewRepository(conn), dbClient, auditSvc, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}
	paymentsSvc, err := payments.NewService(payments.NewRepository(conn), dbClient, auditSvc, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}
	maintenanceSvc, err := maintenance.NewService(maintenance.NewRepository(conn), dbClient, auditSvc, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}
	occupancySvc, err := occupancy.NewService(occupancy.NewRepository(conn), dbClient, outboxSvc, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Properties:  propertiesSvc,
		Leases:      leasesSvc,
		Payments:    paymentsSvc,
		Maintenance: maintenanceSvc,
		Occupancy:   occupancySvc,
		Audit:       auditSvc,
	}, nil
}
