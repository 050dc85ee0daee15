// Package export writes ledger exports to the local archive
package export

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sjperalta/debt-ledger/cmd/ledgerctl/root"
	"github.com/sjperalta/debt-ledger/internal/services"
	"github.com/sjperalta/debt-ledger/internal/storage"
	"github.com/sjperalta/debt-ledger/pkg/logger"
)

var (
	planID string
	format string
	budget string
	dir    string
)

// Cmd renders a plan's ledger and stores it under --dir
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Write a plan's ledger export to the archive directory",
	Long: `Render debts, payment history and the payoff projection of a plan
as csv, xlsx or pdf and store the file under <dir>/<plan>/<yyyy>/<mm>/.

Example:
  ledgerctl export --plan 6f1c... --format xlsx --dir /var/lib/debt-ledger/exports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFlags(); err != nil {
			return err
		}
		monthly := decimal.Zero
		if budget != "" {
			d, err := decimal.NewFromString(budget)
			if err != nil {
				return fmt.Errorf("--budget must be a number: %w", err)
			}
			monthly = d
		}

		archive, err := storage.NewArchive(dir)
		if err != nil {
			return err
		}

		svcs, closeFn, err := root.OpenServices()
		if err != nil {
			return err
		}
		defer closeFn()

		data, filename, err := svcs.Export.ExportLedger(cmd.Context(), planID, format, monthly)
		if err != nil {
			return err
		}
		rel, err := archive.Save(planID, filename, data)
		if err != nil {
			return err
		}

		logger.Info("Ledger exported", "plan_id", planID, "format", format, "bytes", len(data))
		fmt.Fprintln(cmd.OutOrStdout(), archive.FullPath(rel))
		return nil
	},
}

func init() {
	Cmd.Flags().StringVar(&planID, "plan", "", "Plan ID")
	Cmd.Flags().StringVar(&format, "format", services.FormatCSV, "csv, xlsx or pdf")
	Cmd.Flags().StringVar(&budget, "budget", "", "Monthly budget for the projection")
	Cmd.Flags().StringVar(&dir, "dir", "exports", "Archive directory")
}

func validateFlags() error {
	if planID == "" {
		return fmt.Errorf("--plan is required")
	}
	switch strings.ToLower(format) {
	case services.FormatCSV, services.FormatXLSX, services.FormatPDF:
	default:
		return fmt.Errorf("--format must be one of csv, xlsx, pdf")
	}
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("--dir cannot be empty")
	}
	return nil
}
