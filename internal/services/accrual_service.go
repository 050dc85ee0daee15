package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/sjperalta/debt-ledger/internal/repository"
	"github.com/sjperalta/debt-ledger/internal/statemachine"
	"github.com/sjperalta/debt-ledger/pkg/logger"
)

// DefaultGraceDays is how long after a due date a payment still counts
const DefaultGraceDays = 5

// maxCatchUpCycles bounds how many overdue cycles one run rolls forward per debt
const maxCatchUpCycles = 24

// AccrualResult summarizes one accrual run
type AccrualResult struct {
	DebtsChecked int             `json:"debts_checked"`
	CyclesClosed int             `json:"cycles_closed"`
	DebtsAccrued int             `json:"debts_accrued"`
	TotalAccrued decimal.Decimal `json:"total_accrued"`
}

// AccrualService adds missed periodic payments back onto debts with a due date
type AccrualService struct {
	repos     *repository.Repositories
	graceDays int
}

// NewAccrualService creates a new accrual service
func NewAccrualService(repos *repository.Repositories, graceDays int) *AccrualService {
	if graceDays < 0 {
		graceDays = DefaultGraceDays
	}
	return &AccrualService{repos: repos, graceDays: graceDays}
}

// AccrueMissedPayments closes every due cycle whose grace window ended before
// now. For each cycle the payments made between one month before the due
// date and the end of grace are summed; any shortfall against the periodic
// amount is added to both the current and initial balance, and the due date
// moves forward one month. Running it twice for the same now is a no-op.
func (s *AccrualService) AccrueMissedPayments(ctx context.Context, now time.Time) (*AccrualResult, error) {
	grace := time.Duration(s.graceDays) * 24 * time.Hour
	candidates, err := s.repos.Debt.ListWithDueDate(ctx, now.Add(-grace))
	if err != nil {
		return nil, fmt.Errorf("failed to list debts with due dates: %w", err)
	}

	result := &AccrualResult{TotalAccrued: decimal.Zero}
	for _, candidate := range candidates {
		result.DebtsChecked++
		cycles, accrued, err := s.accrueDebt(ctx, candidate.PlanID, candidate.ID, now, grace)
		if err != nil {
			logger.Error("Failed to accrue missed payments", "debt_id", candidate.ID, "error", err)
			continue
		}
		result.CyclesClosed += cycles
		if accrued.IsPositive() {
			result.DebtsAccrued++
			result.TotalAccrued = result.TotalAccrued.Add(accrued)
		}
	}
	return result, nil
}

func (s *AccrualService) accrueDebt(ctx context.Context, planID, debtID string, now time.Time, grace time.Duration) (int, decimal.Decimal, error) {
	cycles := 0
	accrued := decimal.Zero

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		debt, err := tx.Debt.FindByIDForUpdate(ctx, planID, debtID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if debt.DueDate == nil || debt.IsExpenseLinked() || !debt.CurrentBalance.IsPositive() {
			return nil
		}

		due := *debt.DueDate
		for cycles < maxCatchUpCycles {
			graceEnd := due.Add(grace)
			if !now.After(graceEnd) {
				break
			}

			payments, err := tx.Payment.ListByDebtBetween(ctx, debt.ID, due.AddDate(0, -1, 0), graceEnd)
			if err != nil {
				return fmt.Errorf("failed to load cycle payments: %w", err)
			}
			shortfall := decimal.Max(decimal.Zero, debt.Amount.Sub(models.SumPayments(payments)))
			if shortfall.IsPositive() {
				debt.CurrentBalance = debt.CurrentBalance.Add(shortfall)
				debt.InitialBalance = debt.InitialBalance.Add(shortfall)
				accrued = accrued.Add(shortfall)
			}

			due = due.AddDate(0, 1, 0)
			cycles++
		}
		if cycles == 0 {
			return nil
		}

		debt.DueDate = &due
		if err := statemachine.SyncPaid(ctx, debt); err != nil {
			return err
		}
		return tx.Debt.Update(ctx, debt)
	})
	if err != nil {
		return 0, decimal.Zero, err
	}

	if accrued.IsPositive() {
		logger.Info("Accrued missed payments",
			"plan_id", planID,
			"debt_id", debtID,
			"cycles", cycles,
			"accrued", accrued.StringFixed(2),
		)
	}
	return cycles, accrued, nil
}
