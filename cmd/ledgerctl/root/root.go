// Package root contains the root command of ledgerctl
package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sjperalta/debt-ledger/internal/amqp"
	"github.com/sjperalta/debt-ledger/internal/config"
	"github.com/sjperalta/debt-ledger/internal/database"
	"github.com/sjperalta/debt-ledger/internal/jobs"
	"github.com/sjperalta/debt-ledger/internal/repository"
	"github.com/sjperalta/debt-ledger/internal/services"
	"github.com/sjperalta/debt-ledger/pkg/logger"
)

var (
	// Cfg is loaded before any subcommand runs
	Cfg *config.Config

	// DatabaseURL overrides DATABASE_URL when set
	DatabaseURL string

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the debt ledger: migrations and maintenance jobs.",
		Long: `ledgerctl runs schema migrations and the debt ledger's maintenance jobs
(missed-payment accrual, unpaid expense carry-over, outbox dispatch) on demand,
prints payoff projections and archives ledger exports for a plan.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if DatabaseURL != "" {
				cfg.DatabaseURL = DatabaseURL
			}
			Cfg = cfg
			logger.Setup(cfg.Environment, cfg.LogLevel)
			return nil
		},
	}
)

func init() {
	Cmd.PersistentFlags().StringVar(&DatabaseURL, "database-url", "", "Postgres URL (defaults to DATABASE_URL)")
}

// RequireDatabaseURL fails when no database is configured
func RequireDatabaseURL() (string, error) {
	if Cfg == nil || Cfg.DatabaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL or --database-url is required")
	}
	return Cfg.DatabaseURL, nil
}

// OpenServices connects to postgres and builds the service set. The
// returned func releases the worker, broker and database.
func OpenServices() (*services.Services, func(), error) {
	url, err := RequireDatabaseURL()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(url, Cfg.IsProduction())
	if err != nil {
		return nil, nil, err
	}

	var publisher services.Publisher
	var client *amqp.Client
	if Cfg.AMQPURL != "" {
		client, err = amqp.NewClient(Cfg.AMQPURL, Cfg.AMQPExchange, Cfg.AMQPQueue)
		if err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
		publisher = client
	}

	worker := jobs.NewWorker(1)
	svcs := services.NewServices(repository.NewRepositories(db), worker, publisher, Cfg)

	closeFn := func() {
		worker.Shutdown()
		if client != nil {
			_ = client.Close()
		}
		if err := database.Close(db); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}
	return svcs, closeFn, nil
}
