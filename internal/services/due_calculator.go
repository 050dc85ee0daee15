package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/models"
)

// DueResult is the amount owed on a debt for one ledger period
type DueResult struct {
	Period          string          `json:"period"`
	EffectiveAmount decimal.Decimal `json:"effective_amount"`
	DueNow          decimal.Decimal `json:"due_now"`
	PeriodsDue      int             `json:"periods_due"`
	PaidInPeriod    decimal.Decimal `json:"paid_in_period"`
	PaidThisPeriod  bool            `json:"paid_this_period"`
	Note            string          `json:"note,omitempty"`
}

// CalculateDue computes what is owed on debt for the current period given its
// payment history. It never mutates its inputs.
//
// The per-period amount is the installment baseline raised to the monthly
// minimum and capped at the balance. Walking back from the current period,
// every period whose payments fall short of that amount counts as unpaid
// until a satisfied period (or the start of the plan) is reached; the amount
// due is the unpaid periods' total less what was already paid in them.
func CalculateDue(debt *models.Debt, payments []models.Payment, current models.Period) (DueResult, error) {
	if err := current.Validate(); err != nil {
		return DueResult{}, invalid("period", "%s", err.Error())
	}
	if debt.InitialBalance.IsNegative() {
		return DueResult{}, invalid("initial_balance", "must not be negative")
	}
	if debt.CurrentBalance.IsNegative() {
		return DueResult{}, invalid("current_balance", "must not be negative")
	}
	if debt.MonthlyMinimum.Valid && debt.MonthlyMinimum.Decimal.IsNegative() {
		return DueResult{}, invalid("monthly_minimum", "must not be negative")
	}

	result := DueResult{
		Period:       current.Key(),
		DueNow:       decimal.Zero,
		PaidInPeriod: decimal.Zero,
	}

	paidBy := map[models.Period]decimal.Decimal{}
	start := current
	if !debt.CreatedAt.IsZero() {
		start = models.PeriodOf(debt.CreatedAt)
	}
	for _, p := range payments {
		period := p.Period()
		if current.Before(period) {
			continue
		}
		paidBy[period] = paidBy[period].Add(p.Amount)
		if period.Before(start) {
			start = period
		}
	}
	if current.Before(start) {
		start = current
	}
	result.PaidInPeriod = paidBy[current]

	if !debt.CurrentBalance.IsPositive() {
		result.PaidThisPeriod = result.PaidInPeriod.IsPositive()
		return result, nil
	}

	effective := decimal.Min(debt.PlannedPayment(), debt.CurrentBalance).Round(2)
	result.EffectiveAmount = effective

	if result.PaidInPeriod.GreaterThanOrEqual(effective) {
		result.PaidThisPeriod = true
		return result, nil
	}

	unpaid := 0
	alreadyPaid := decimal.Zero
	for p := current; !p.Before(start); p = p.AddMonths(-1) {
		if paidBy[p].GreaterThanOrEqual(effective) {
			break
		}
		unpaid++
		alreadyPaid = alreadyPaid.Add(paidBy[p])
	}

	due := effective.Mul(decimal.NewFromInt(int64(unpaid))).Sub(alreadyPaid)
	due = decimal.Min(debt.CurrentBalance, decimal.Max(decimal.Zero, due))

	result.DueNow = due
	result.PeriodsDue = unpaid
	if unpaid > 1 {
		result.Note = missedNote(unpaid - 1)
	}
	return result, nil
}

func missedNote(missed int) string {
	if missed == 1 {
		return "includes 1 missed period"
	}
	return fmt.Sprintf("includes %d missed periods", missed)
}
