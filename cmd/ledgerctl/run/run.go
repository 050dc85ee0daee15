// Package run triggers the ledger's maintenance jobs once
package run

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sjperalta/debt-ledger/cmd/ledgerctl/root"
)

var asOf string

// Cmd groups the one-shot job commands
var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Run a maintenance job once",
	Long: `Run one of the jobs the API schedules, outside its schedule.

Example:
  ledgerctl run accrue --as-of 2024-03-10
  ledgerctl run dispatch`,
}

var accrueCmd = &cobra.Command{
	Use:   "accrue",
	Short: "Close missed billing cycles and accrue their shortfall",
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := ParseAsOf(asOf, time.Now())
		if err != nil {
			return err
		}
		svcs, closeFn, err := root.OpenServices()
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := svcs.Accrual.AccrueMissedPayments(cmd.Context(), now)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "checked %d debts, closed %d cycles, accrued %s on %d debts\n",
			res.DebtsChecked, res.CyclesClosed, res.TotalAccrued.StringFixed(2), res.DebtsAccrued)
		return nil
	},
}

var carryoverCmd = &cobra.Command{
	Use:   "carryover",
	Short: "Turn unpaid expenses of past months into debts",
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := ParseAsOf(asOf, time.Now())
		if err != nil {
			return err
		}
		svcs, closeFn, err := root.OpenServices()
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := svcs.ExpenseSync.CarryOverUnpaidExpenses(cmd.Context(), now)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "carried over %d expenses\n", n)
		return nil
	},
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Publish pending ledger events",
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, closeFn, err := root.OpenServices()
		if err != nil {
			return err
		}
		defer closeFn()
		return svcs.Outbox.DispatchPending(cmd.Context())
	},
}

func init() {
	accrueCmd.Flags().StringVar(&asOf, "as-of", "", "Reference date YYYY-MM-DD (defaults to now)")
	carryoverCmd.Flags().StringVar(&asOf, "as-of", "", "Reference date YYYY-MM-DD (defaults to now)")
	Cmd.AddCommand(accrueCmd, carryoverCmd, dispatchCmd)
}

// ParseAsOf reads a YYYY-MM-DD reference date; empty means fallback
func ParseAsOf(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}
