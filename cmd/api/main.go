package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mshami/kwikship-backend/internal/api"
	"github.com/mshami/kwikship-backend/internal/auth"
	"github.com/mshami/kwikship-backend/internal/config"
	"github.com/mshami/kwikship-backend/internal/db"
	"github.com/mshami/kwikship-backend/internal/logger"
	"github.com/mshami/kwikship-backend/internal/metrics"
	"github.com/mshami/kwikship-backend/internal/notify"
	"github.com/mshami/kwikship-backend/internal/repository/postgres"
	"github.com/mshami/kwikship-backend/internal/services"
	"github.com/mshami/kwikship-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	var nt notify.Notifier = notify.Nop{}
	if cfg.NotifyWebhookURL != "" {
		nt = notify.NewWebhook(cfg.NotifyWebhookURL)
	}

	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)

	userSvc := services.NewUserService(repos.Users, tm)
	ledgerSvc := services.NewLedgerService(repos.Transactions, repos.Wallets, repos.ActivityLogs, wp, nt)
	shipSvc := services.NewShipmentService(repos.Shipments, ledgerSvc, repos.ActivityLogs, wp, nt)
	reportSvc := services.NewReportService(repos.Shipments, repos.Transactions, repos.ActivityLogs)

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:       cfg,
		TM:        tm,
		UserSvc:   userSvc,
		LedgerSvc: ledgerSvc,
		ShipSvc:   shipSvc,
		ReportSvc: reportSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
