// Package migrate holds the schema migration commands
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sjperalta/debt-ledger/cmd/ledgerctl/root"
	"github.com/sjperalta/debt-ledger/internal/database"
	"github.com/sjperalta/debt-ledger/pkg/logger"
)

var steps int

// Cmd groups the migration subcommands
var Cmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := root.RequireDatabaseURL()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(url); err != nil {
			return err
		}
		logger.Info("Migrations applied")
		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	Long: `Roll back the given number of migrations (default 1).

Example:
  ledgerctl migrate down --steps 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if steps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		url, err := root.RequireDatabaseURL()
		if err != nil {
			return err
		}
		if err := database.RollbackMigrations(url, steps); err != nil {
			return err
		}
		logger.Info("Migrations rolled back", "steps", steps)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := root.RequireDatabaseURL()
		if err != nil {
			return err
		}
		version, dirty, err := database.MigrationVersion(url)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
		return nil
	},
}

func init() {
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	Cmd.AddCommand(upCmd, downCmd, versionCmd)
}
