package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/sjperalta/debt-ledger/internal/repository"
	"github.com/sjperalta/debt-ledger/internal/statemachine"
	"github.com/sjperalta/debt-ledger/pkg/logger"
)

// Sync outcomes
const (
	SyncCreated  = "created"
	SyncUpdated  = "updated"
	SyncResolved = "resolved"
	SyncNoop     = "noop"
)

// ExpenseDebtInput describes the current state of one expense
type ExpenseDebtInput struct {
	ExpenseID       string          `json:"expense_id"`
	PeriodKey       string          `json:"period_key"`
	CategoryID      *string         `json:"category_id"`
	CategoryName    *string         `json:"category_name"`
	ExpenseName     string          `json:"expense_name"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// ExpenseSyncResult reports what the sync did to the mirrored debt
type ExpenseSyncResult struct {
	Action string       `json:"action"`
	Debt   *models.Debt `json:"debt,omitempty"`
}

// ExpenseSyncService keeps synthetic debts mirrored to unpaid expenses
type ExpenseSyncService struct {
	repos *repository.Repositories
	now   func() time.Time
}

// NewExpenseSyncService creates a new expense sync service
func NewExpenseSyncService(repos *repository.Repositories) *ExpenseSyncService {
	return &ExpenseSyncService{repos: repos, now: time.Now}
}

// UpsertExpenseDebt creates, updates or resolves the synthetic debt mirroring
// an expense so that its balance equals the expense's remaining amount.
func (s *ExpenseSyncService) UpsertExpenseDebt(ctx context.Context, planID string, in ExpenseDebtInput) (*ExpenseSyncResult, error) {
	if err := validateExpenseInput(in); err != nil {
		return nil, err
	}
	var result *ExpenseSyncResult
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		result, err = upsertExpenseDebt(ctx, tx, planID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HandleEvent applies an outbox event to the expense store and re-syncs the
// synthetic debt from the result. Events already processed are skipped.
func (s *ExpenseSyncService) HandleEvent(ctx context.Context, event models.OutboxEvent) error {
	switch event.EventType {
	case models.EventExpensePaymentApplied, models.EventExpensePaymentReversed:
	default:
		logger.Warn("Ignoring unknown ledger event", "event_id", event.ID, "event_type", event.EventType)
		return nil
	}

	payload, err := event.ExpensePayment()
	if err != nil {
		return fmt.Errorf("failed to decode event %s: %w", event.ID, err)
	}

	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		first, err := tx.Outbox.MarkProcessed(ctx, event.ID, s.now())
		if err != nil {
			return fmt.Errorf("failed to mark event processed: %w", err)
		}
		if !first {
			logger.Info("Ledger event already processed", "event_id", event.ID)
			return nil
		}

		expense, remaining, err := tx.Expense.ApplyExpensePayment(ctx, event.PlanID, payload.PeriodKey, payload.ExpenseID, payload.Delta)
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Expense for ledger event no longer exists",
				"event_id", event.ID,
				"expense_id", payload.ExpenseID,
				"period", payload.PeriodKey,
			)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to apply expense payment: %w", err)
		}

		result, err := upsertExpenseDebt(ctx, tx, event.PlanID, ExpenseDebtInput{
			ExpenseID:       expense.ID,
			PeriodKey:       expense.PeriodKey,
			CategoryID:      expense.CategoryID,
			CategoryName:    expense.CategoryName,
			ExpenseName:     expense.Name,
			RemainingAmount: remaining,
		})
		if err != nil {
			return err
		}

		logger.Info("Expense synced from ledger event",
			"event_id", event.ID,
			"expense_id", expense.ID,
			"remaining", remaining.StringFixed(2),
			"action", result.Action,
		)
		return nil
	})
}

// CarryOverUnpaidExpenses surfaces every not fully paid expense from periods
// before now as a synthetic debt. It returns how many debts it touched.
func (s *ExpenseSyncService) CarryOverUnpaidExpenses(ctx context.Context, now time.Time) (int, error) {
	expenses, err := s.repos.Expense.ListUnpaidBefore(ctx, models.PeriodOf(now))
	if err != nil {
		return 0, fmt.Errorf("failed to list unpaid expenses: %w", err)
	}

	touched := 0
	for _, e := range expenses {
		res, err := s.UpsertExpenseDebt(ctx, e.PlanID, ExpenseDebtInput{
			ExpenseID:       e.ID,
			PeriodKey:       e.PeriodKey,
			CategoryID:      e.CategoryID,
			CategoryName:    e.CategoryName,
			ExpenseName:     e.Name,
			RemainingAmount: e.Remaining(),
		})
		if err != nil {
			logger.Error("Failed to carry over expense", "expense_id", e.ID, "error", err)
			continue
		}
		if res.Action != SyncNoop {
			touched++
		}
	}
	return touched, nil
}

func upsertExpenseDebt(ctx context.Context, tx *repository.Repositories, planID string, in ExpenseDebtInput) (*ExpenseSyncResult, error) {
	existing, err := tx.Debt.FindByExpenseID(ctx, planID, in.ExpenseID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up expense debt: %w", err)
	}

	if existing == nil {
		if !in.RemainingAmount.IsPositive() {
			return &ExpenseSyncResult{Action: SyncNoop}, nil
		}
		debt := newExpenseDebt(planID, in)
		if err := tx.Debt.Create(ctx, debt); err != nil {
			return nil, fmt.Errorf("failed to create expense debt: %w", err)
		}
		return &ExpenseSyncResult{Action: SyncCreated, Debt: debt}, nil
	}

	action := SyncUpdated
	if !in.RemainingAmount.IsPositive() {
		existing.CurrentBalance = decimal.Zero
		existing.PaidAmount = existing.InitialBalance
		action = SyncResolved
	} else {
		if in.RemainingAmount.GreaterThan(existing.InitialBalance) {
			existing.InitialBalance = in.RemainingAmount
		}
		existing.CurrentBalance = in.RemainingAmount
		existing.PaidAmount = decimal.Max(decimal.Zero, existing.InitialBalance.Sub(in.RemainingAmount))
		existing.Amount = in.RemainingAmount
		applyExpenseLinkage(existing, in)
	}
	if err := statemachine.SyncPaid(ctx, existing); err != nil {
		return nil, err
	}
	if err := tx.Debt.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update expense debt: %w", err)
	}
	return &ExpenseSyncResult{Action: action, Debt: existing}, nil
}

func newExpenseDebt(planID string, in ExpenseDebtInput) *models.Debt {
	sourceType := models.SourceTypeExpense
	debt := &models.Debt{
		PlanID:               planID,
		Type:                 models.DebtTypeOther,
		InitialBalance:       in.RemainingAmount,
		CurrentBalance:       in.RemainingAmount,
		Amount:               in.RemainingAmount,
		PaidAmount:           decimal.Zero,
		DefaultPaymentSource: models.PaymentSourceIncome,
		SourceType:           &sourceType,
	}
	applyExpenseLinkage(debt, in)
	debt.EnsureID()
	return debt
}

func applyExpenseLinkage(debt *models.Debt, in ExpenseDebtInput) {
	expenseID := in.ExpenseID
	periodKey := in.PeriodKey
	expenseName := strings.TrimSpace(in.ExpenseName)

	debt.Name = expenseDebtName(in.CategoryName, expenseName, periodKey)
	debt.SourceExpenseID = &expenseID
	debt.SourceMonthKey = &periodKey
	debt.SourceCategoryID = in.CategoryID
	debt.SourceCategoryName = in.CategoryName
	debt.SourceExpenseName = &expenseName
}

func expenseDebtName(category *string, expense, periodKey string) string {
	if category != nil && strings.TrimSpace(*category) != "" {
		return fmt.Sprintf("%s: %s (%s)", strings.TrimSpace(*category), expense, periodKey)
	}
	return fmt.Sprintf("%s (%s)", expense, periodKey)
}

func validateExpenseInput(in ExpenseDebtInput) error {
	if strings.TrimSpace(in.ExpenseID) == "" {
		return invalid("expense_id", "is required")
	}
	if _, err := models.ParsePeriod(in.PeriodKey); err != nil {
		return invalid("period_key", "%s", err.Error())
	}
	if strings.TrimSpace(in.ExpenseName) == "" {
		return invalid("expense_name", "is required")
	}
	return nil
}
