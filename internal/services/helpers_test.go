package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/sjperalta/debt-ledger/internal/repository"
	"github.com/sjperalta/debt-ledger/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

const testPlan = "plan-1"

var march2024 = models.Period{Year: 2024, Month: 3}

type ledgerFixture struct {
	store    *memory.Store
	repos    *repository.Repositories
	debts    *DebtService
	payments *PaymentService
	sync     *ExpenseSyncService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := memory.New()
	repos := store.Repositories()
	return &ledgerFixture{
		store:    store,
		repos:    repos,
		debts:    NewDebtService(repos),
		payments: NewPaymentService(repos, nil, nil),
		sync:     NewExpenseSyncService(repos),
	}
}

func (f *ledgerFixture) createDebt(t *testing.T, in CreateDebtInput) *models.Debt {
	t.Helper()
	debt, err := f.debts.Create(context.Background(), testPlan, in)
	require.NoError(t, err)
	return debt
}

func (f *ledgerFixture) loan(t *testing.T, name string, balance int64) *models.Debt {
	t.Helper()
	return f.createDebt(t, CreateDebtInput{Name: name, Type: models.DebtTypeLoan, InitialBalance: dec(balance)})
}

func (f *ledgerFixture) card(t *testing.T, name string, balance int64) *models.Debt {
	t.Helper()
	return f.createDebt(t, CreateDebtInput{Name: name, Type: models.DebtTypeCreditCard, InitialBalance: dec(balance)})
}

func (f *ledgerFixture) reload(t *testing.T, id string) *models.Debt {
	t.Helper()
	debt, err := f.repos.Debt.FindByID(context.Background(), testPlan, id)
	require.NoError(t, err)
	return debt
}

func (f *ledgerFixture) pay(t *testing.T, debtID string, amount int64, funding Funding) *PaymentResult {
	t.Helper()
	res, err := f.payments.ApplyPayment(context.Background(), testPlan, PaymentRequest{
		DebtID:  debtID,
		Amount:  dec(amount),
		Period:  march2024,
		Funding: funding,
		PaidAt:  time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return res
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func decStr(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int {
	return &v
}

func strPtr(s string) *string {
	return &s
}

// assertDecimal compares by value so 100 and 100.00 are equal
func assertDecimal(t *testing.T, want, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, want.Equal(got), "expected %s, got %s %v", want, got, msgAndArgs)
}
