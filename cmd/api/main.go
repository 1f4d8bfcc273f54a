package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/vendalink/affiliates-backend/api/routes"
	"github.com/vendalink/affiliates-backend/internal/affiliates"
	"github.com/vendalink/affiliates-backend/internal/coupons"
	"github.com/vendalink/affiliates-backend/internal/earnings"
	"github.com/vendalink/affiliates-backend/internal/rules"
	"github.com/vendalink/affiliates-backend/internal/withdrawals"
	"github.com/vendalink/affiliates-backend/pkg/auth/session"
	"github.com/vendalink/affiliates-backend/pkg/config"
	"github.com/vendalink/affiliates-backend/pkg/db"
	"github.com/vendalink/affiliates-backend/pkg/logger"
	"github.com/vendalink/affiliates-backend/pkg/migrate"
	"github.com/vendalink/affiliates-backend/pkg/outbox"
	"github.com/vendalink/affiliates-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	affiliateRepo := affiliates.NewRepository(dbClient.DB())
	ruleRepo := rules.NewRepository(dbClient.DB())
	couponRepo := coupons.NewRepository(dbClient.DB())
	earningRepo := earnings.NewRepository(dbClient.DB())
	withdrawalRepo := withdrawals.NewRepository(dbClient.DB())

	affiliateService, err := affiliates.NewService(affiliateRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create affiliate service", err)
		os.Exit(1)
	}

	ruleService, err := rules.NewService(ruleRepo, affiliateRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create rule service", err)
		os.Exit(1)
	}

	couponService, err := coupons.NewService(couponRepo, affiliateRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	earningService, err := earnings.NewService(
		earningRepo,
		affiliateRepo,
		ruleRepo,
		couponService,
		dbClient,
		outboxService,
		logg,
		earnings.Config{DefaultMaturityDays: cfg.Engine.DefaultMaturityDays},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create earning service", err)
		os.Exit(1)
	}

	withdrawalService, err := withdrawals.NewService(withdrawalRepo, earningRepo, affiliateRepo, dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawal service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			affiliateService,
			ruleService,
			couponService,
			earningService,
			withdrawalService,
		),
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
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
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "forced shutdown after timeout", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
