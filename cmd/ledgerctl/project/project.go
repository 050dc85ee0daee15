// Package project prints payoff projections
package project

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sjperalta/debt-ledger/cmd/ledgerctl/root"
	"github.com/sjperalta/debt-ledger/internal/services"
)

var (
	planID string
	budget string
	asJSON bool
	yearly bool
)

// Cmd prints a plan's payoff projection
var Cmd = &cobra.Command{
	Use:   "project",
	Short: "Print the payoff projection of a plan",
	Long: `Simulate month-by-month payoff of a plan's active debts.

Example:
  ledgerctl project --plan 6f1c... --budget 500 --yearly`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if planID == "" {
			return fmt.Errorf("--plan is required")
		}
		monthly := decimal.Zero
		if budget != "" {
			d, err := decimal.NewFromString(budget)
			if err != nil {
				return fmt.Errorf("--budget must be a number: %w", err)
			}
			monthly = d
		}

		svcs, closeFn, err := root.OpenServices()
		if err != nil {
			return err
		}
		defer closeFn()

		p, err := svcs.Projection.Project(cmd.Context(), planID, monthly)
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		}
		return WriteProjection(cmd.OutOrStdout(), p, yearly)
	},
}

func init() {
	Cmd.Flags().StringVar(&planID, "plan", "", "Plan ID")
	Cmd.Flags().StringVar(&budget, "budget", "", "Monthly budget for debts without a payment plan")
	Cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	Cmd.Flags().BoolVar(&yearly, "yearly", false, "Only print every twelfth month")
}

// WriteProjection renders p as aligned text
func WriteProjection(w io.Writer, p *services.Projection, yearly bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if p.MonthsToClear != nil && p.DebtFreeBy != nil {
		fmt.Fprintf(tw, "Debt free in %d months (%s)\n", *p.MonthsToClear, *p.DebtFreeBy)
	} else {
		fmt.Fprintln(tw, p.Note)
	}
	fmt.Fprintf(tw, "Monthly payment\t%s\n\n", p.MonthlyPayment.StringFixed(2))

	fmt.Fprintln(tw, "DEBT\tBALANCE\tPAYMENT\tCLEARS")
	for _, d := range p.Debts {
		clears := "-"
		if d.PaidOffBy != nil {
			clears = *d.PaidOffBy
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.StartBalance.StringFixed(2), d.MonthlyPayment.StringFixed(2), clears)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "MONTH\tPERIOD\tBALANCE")
	for _, pt := range p.Series {
		if yearly && pt.Month%12 != 0 && pt.Month != p.Series[len(p.Series)-1].Month {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", pt.Month, pt.Period, pt.Balance.StringFixed(2))
	}
	return tw.Flush()
}
