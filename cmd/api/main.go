package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/waithaka-labs/dukapos-backend/api/routes"
	"github.com/waithaka-labs/dukapos-backend/internal/cashier"
	"github.com/waithaka-labs/dukapos-backend/internal/inventory"
	"github.com/waithaka-labs/dukapos-backend/internal/ledger"
	"github.com/waithaka-labs/dukapos-backend/internal/periods"
	"github.com/waithaka-labs/dukapos-backend/internal/reconciliation"
	"github.com/waithaka-labs/dukapos-backend/pkg/config"
	"github.com/waithaka-labs/dukapos-backend/pkg/db"
	"github.com/waithaka-labs/dukapos-backend/pkg/logger"
	"github.com/waithaka-labs/dukapos-backend/pkg/metrics"
	"github.com/waithaka-labs/dukapos-backend/pkg/migrate"
	"github.com/waithaka-labs/dukapos-backend/pkg/outbox"
	"github.com/waithaka-labs/dukapos-backend/pkg/redis"
)

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

	coreMetrics := metrics.NewCoreMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	periodService, err := periods.NewService(periods.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create period service", err)
		os.Exit(1)
	}

	var snapshotCache *inventory.SnapshotCache
	if cfg.FeatureFlags.SnapshotCache {
		snapshotCache = inventory.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL)
	}

	inventoryService, err := inventory.NewService(
		inventory.NewRepository(dbClient.DB()),
		dbClient,
		periodService,
		outboxService,
		coreMetrics,
		snapshotCache,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	ledgerRepo := ledger.NewRepository(dbClient.DB())
	accountService, err := ledger.NewAccountService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create account service", err)
		os.Exit(1)
	}
	journalService, err := ledger.NewJournalService(ledgerRepo, dbClient, periodService, outboxService, coreMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create journal service", err)
		os.Exit(1)
	}

	cashierService, err := cashier.NewService(cashier.NewRepository(dbClient.DB()), dbClient, periodService, outboxService, coreMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create cashier service", err)
		os.Exit(1)
	}

	reconciliationService, err := reconciliation.NewService(
		reconciliation.NewRepository(dbClient.DB()),
		dbClient,
		cashierService,
		journalService,
		coreMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciliation service", err)
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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			inventoryService,
			accountService,
			journalService,
			cashierService,
			periodService,
			reconciliationService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
