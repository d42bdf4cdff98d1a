package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fieldtally/stocktake-backend/api/routes"
	"github.com/fieldtally/stocktake-backend/internal/conflicts"
	"github.com/fieldtally/stocktake-backend/internal/counts"
	"github.com/fieldtally/stocktake-backend/internal/sessions"
	"github.com/fieldtally/stocktake-backend/pkg/config"
	"github.com/fieldtally/stocktake-backend/pkg/db"
	"github.com/fieldtally/stocktake-backend/pkg/logger"
	"github.com/fieldtally/stocktake-backend/pkg/metrics"
	"github.com/fieldtally/stocktake-backend/pkg/migrate"
	"github.com/fieldtally/stocktake-backend/pkg/outbox"
	"github.com/fieldtally/stocktake-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	reconMetrics := metrics.NewReconciliationMetrics(registry)

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	sessionsSvc, err := sessions.NewService(sessions.NewRepository(dbClient.DB()), dbClient, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sessions service", err)
		os.Exit(1)
	}

	countsSvc, err := counts.NewService(
		counts.NewRepository(dbClient.DB()),
		dbClient,
		outboxSvc,
		redisClient,
		reconMetrics,
		logg,
		cfg.Counting,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create counts service", err)
		os.Exit(1)
	}

	conflictsSvc, err := conflicts.NewService(conflicts.NewRepository(dbClient.DB()), dbClient, outboxSvc, reconMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create conflicts service", err)
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
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, sessionsSvc, countsSvc, conflictsSvc),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
