package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	_ "github.com/joho/godotenv/autoload"

	"github.com/sjperalta/debt-ledger/internal/amqp"
	"github.com/sjperalta/debt-ledger/internal/config"
	"github.com/sjperalta/debt-ledger/internal/database"
	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/sjperalta/debt-ledger/internal/repository"
	"github.com/sjperalta/debt-ledger/internal/services"
	"github.com/sjperalta/debt-ledger/pkg/logger"
)

// sync-worker consumes ledger events from the broker and applies them to
// the expense store. Run it when the API publishes over AMQP.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Setup(cfg.Environment, cfg.LogLevel)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}
	if cfg.StorageBackend != config.BackendPostgres {
		logger.Error("The sync worker needs the postgres backend", "backend", cfg.StorageBackend)
		os.Exit(1)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Environment}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		}
		defer sentry.Flush(5 * time.Second)
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.IsProduction())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	syncSvc := services.NewExpenseSyncService(repository.NewRepositories(db))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Sync worker starting", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	err = amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, func(ctx context.Context, event models.OutboxEvent) error {
		if err := syncSvc.HandleEvent(ctx, event); err != nil {
			sentry.CaptureException(err)
			return err
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("Sync worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Sync worker exited gracefully")
}
