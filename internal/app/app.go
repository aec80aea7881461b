package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/freelancehub/wallet-ledger/internal/api"
	"github.com/freelancehub/wallet-ledger/internal/api/middleware"
	"github.com/freelancehub/wallet-ledger/internal/config"
	"github.com/freelancehub/wallet-ledger/internal/db"
	"github.com/freelancehub/wallet-ledger/internal/idempotency"
	"github.com/freelancehub/wallet-ledger/internal/notify"
	"github.com/freelancehub/wallet-ledger/internal/observability"
	"github.com/freelancehub/wallet-ledger/internal/repository"
	"github.com/freelancehub/wallet-ledger/internal/service"
	"github.com/freelancehub/wallet-ledger/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server, the notification queue and the background workers, blocking
// until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		if err := notify.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate job queue: %w", err)
		}
		logger.Info("database schema applied")
	}

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	idemStore := idempotency.NewStore(redisClient, pool, cfg.IdempotencyTTL)
	store := repository.NewStore(pool)

	jobs, err := notify.NewClient(pool, notify.ClientConfig{
		Directory:  store.Queries(),
		Mailer:     newMailer(cfg.Notify, logger),
		AdminEmail: cfg.Notify.AdminEmail,
		MaxWorkers: cfg.Notify.Workers,
	})
	if err != nil {
		return fmt.Errorf("init notifications: %w", err)
	}
	if err := jobs.Start(ctx); err != nil {
		return fmt.Errorf("start notifications: %w", err)
	}
	notifier := notify.NewNotifier(jobs)

	settings := service.LedgerSettings{
		PayoutMinimum:   cfg.PayoutMinimumAmount,
		FreelancerShare: cfg.FreelancerShare,
	}
	services := api.Services{
		Wallets: service.NewWalletService(store, notifier, settings),
		Payouts: service.NewPayoutService(store, notifier),
		Orders:  service.NewOrderService(store, notifier, settings),
	}

	reconciler := worker.NewReconciliationWorker(service.NewReconciliationService(store)).
		WithInterval(cfg.ReconciliationInterval)
	stopReconciler := reconciler.Run(ctx)
	queueMonitor := worker.NewPayoutQueueMonitor(services.Payouts).
		WithPollInterval(cfg.PayoutMonitorInterval)
	stopMonitor := queueMonitor.Run(ctx)
	logger.Info("background workers started",
		zap.Duration("reconciliation_interval", cfg.ReconciliationInterval),
		zap.Duration("payout_monitor_interval", cfg.PayoutMonitorInterval),
	)

	router := api.NewRouter(cfg, logger, pool, redisClient, idemStore, services)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("stopping background workers")
	stopReconciler()
	stopMonitor()
	if err := jobs.Stop(shutdownCtx); err != nil {
		logger.Error("notification queue shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newMailer(cfg config.NotifyConfig, logger *zap.Logger) notify.Mailer {
	if cfg.SMTPHost == "" {
		logger.Info("SMTP_HOST not set, notification emails will be logged only")
		return notify.NewLogMailer(logger)
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     strconv.Itoa(cfg.SMTPPort),
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
