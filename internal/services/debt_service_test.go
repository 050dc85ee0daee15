package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebtService_CreateDefaults(t *testing.T) {
	f := newLedgerFixture(t)

	d := f.createDebt(t, CreateDebtInput{
		Name:              "  Car  ",
		Type:              models.DebtTypeLoan,
		InitialBalance:    dec(1200),
		InstallmentMonths: intPtr(12),
		MonthlyMinimum:    decimal.NewNullDecimal(dec(150)),
	})

	assert.Equal(t, "Car", d.Name)
	assertDecimal(t, dec(1200), d.CurrentBalance)
	assertDecimal(t, dec(150), d.Amount)
	assertDecimal(t, decimal.Zero, d.PaidAmount)
	assert.Equal(t, models.PaymentSourceIncome, d.DefaultPaymentSource)
	assert.False(t, d.Paid)
	assert.NotEmpty(t, d.ID)
}

func TestDebtService_CreateWithPartialBalance(t *testing.T) {
	f := newLedgerFixture(t)

	d := f.createDebt(t, CreateDebtInput{
		Name:           "Old loan",
		Type:           models.DebtTypeLoan,
		InitialBalance: dec(1000),
		CurrentBalance: decimal.NewNullDecimal(dec(400)),
	})

	assertDecimal(t, dec(400), d.CurrentBalance)
	assertDecimal(t, dec(600), d.PaidAmount)
	assertDecimal(t, dec(60), d.PercentPaid())
}

func TestDebtService_CreateValidation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateDebtInput
	}{
		{name: "missing name", in: CreateDebtInput{Type: models.DebtTypeLoan}},
		{name: "unknown type", in: CreateDebtInput{Name: "x", Type: "pawn"}},
		{name: "negative balance", in: CreateDebtInput{Name: "x", Type: models.DebtTypeLoan, InitialBalance: dec(-1)}},
		{name: "loan current above initial", in: CreateDebtInput{Name: "x", Type: models.DebtTypeLoan, InitialBalance: dec(100), CurrentBalance: decimal.NewNullDecimal(dec(150))}},
		{name: "zero installments", in: CreateDebtInput{Name: "x", Type: models.DebtTypeLoan, InstallmentMonths: intPtr(0)}},
		{name: "due day", in: CreateDebtInput{Name: "x", Type: models.DebtTypeLoan, DueDay: intPtr(32)}},
		{name: "card source without card", in: CreateDebtInput{Name: "x", Type: models.DebtTypeLoan, DefaultPaymentSource: models.PaymentSourceCreditCard}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.debts.Create(ctx, testPlan, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestDebtService_CardMayCarryMoreThanInitialBalance(t *testing.T) {
	f := newLedgerFixture(t)

	d := f.createDebt(t, CreateDebtInput{
		Name:           "Visa",
		Type:           models.DebtTypeCreditCard,
		InitialBalance: dec(100),
		CurrentBalance: decimal.NewNullDecimal(dec(250)),
	})

	assertDecimal(t, dec(250), d.CurrentBalance)
	assertDecimal(t, decimal.Zero, d.PaidAmount)
}

func TestDebtService_DefaultCardMustBeACard(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	loan := f.loan(t, "Loan", 100)
	card := f.card(t, "Visa", 0)

	_, err := f.debts.Create(ctx, testPlan, CreateDebtInput{
		Name: "x", Type: models.DebtTypeLoan,
		DefaultPaymentSource: models.PaymentSourceCreditCard, DefaultPaymentCardDebtID: &loan.ID,
	})
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, ReasonNotCard, err.Error())

	d, err := f.debts.Create(ctx, testPlan, CreateDebtInput{
		Name: "y", Type: models.DebtTypeLoan, InitialBalance: dec(10),
		DefaultPaymentSource: models.PaymentSourceCreditCard, DefaultPaymentCardDebtID: &card.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, card.ID, *d.DefaultPaymentCardDebtID)

	source := models.PaymentSourceCreditCard
	_, err = f.debts.Update(ctx, testPlan, card.ID, UpdateDebtInput{DefaultPaymentSource: &source, DefaultPaymentCardDebtID: &card.ID})
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, ReasonSelfFunding, err.Error())
}

func TestDebtService_UpdateRecomputesAmount(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	loan := f.createDebt(t, CreateDebtInput{Name: "Car", Type: models.DebtTypeLoan, InitialBalance: dec(1200), InstallmentMonths: intPtr(12)})
	assertDecimal(t, dec(100), loan.Amount)

	name := "Family car"
	updated, err := f.debts.Update(ctx, testPlan, loan.ID, UpdateDebtInput{Name: &name, InstallmentMonths: intPtr(6)})
	require.NoError(t, err)

	assert.Equal(t, "Family car", updated.Name)
	assertDecimal(t, dec(200), updated.Amount)
	assertDecimal(t, dec(1200), updated.CurrentBalance)

	source := models.PaymentSourceExtraFunds
	updated, err = f.debts.Update(ctx, testPlan, loan.ID, UpdateDebtInput{DefaultPaymentSource: &source})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSourceExtraFunds, updated.DefaultPaymentSource)
	assert.Nil(t, updated.DefaultPaymentCardDebtID)
}

func TestDebtService_ExpenseLinkedRules(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	res, err := f.sync.UpsertExpenseDebt(ctx, testPlan, rentInput(50))
	require.NoError(t, err)
	id := res.Debt.ID

	_, err = f.debts.Update(ctx, testPlan, id, UpdateDebtInput{InstallmentMonths: intPtr(3)})
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, ReasonExpenseLinked, err.Error())

	name := "Rent arrears"
	updated, err := f.debts.Update(ctx, testPlan, id, UpdateDebtInput{Name: &name})
	require.NoError(t, err)
	assertDecimal(t, dec(50), updated.Amount)

	err = f.debts.Delete(ctx, testPlan, id)
	require.ErrorIs(t, err, ErrConflict)

	_, err = f.sync.UpsertExpenseDebt(ctx, testPlan, rentInput(0))
	require.NoError(t, err)
	assert.NoError(t, f.debts.Delete(ctx, testPlan, id))
}

func TestDebtService_DeleteCardInUse(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	card := f.card(t, "Visa", 0)
	loan := f.createDebt(t, CreateDebtInput{
		Name: "Loan", Type: models.DebtTypeLoan, InitialBalance: dec(100),
		DefaultPaymentSource: models.PaymentSourceCreditCard, DefaultPaymentCardDebtID: &card.ID,
	})

	err := f.debts.Delete(ctx, testPlan, card.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, ReasonCardInUse, err.Error())

	require.NoError(t, f.debts.Delete(ctx, testPlan, loan.ID))
	require.NoError(t, f.debts.Delete(ctx, testPlan, card.ID))

	assert.ErrorIs(t, f.debts.Delete(ctx, testPlan, card.ID), ErrNotFound)
}

func TestDebtService_DeleteRemovesPayments(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	loan := f.loan(t, "Loan", 500)
	res := f.pay(t, loan.ID, 100, IncomeFunding{})

	require.NoError(t, f.debts.Delete(ctx, testPlan, loan.ID))

	_, err := f.repos.Payment.FindByID(ctx, res.Payment.ID)
	assert.Error(t, err)
}

func TestDebtService_GetIncludesDue(t *testing.T) {
	f := newLedgerFixture(t)
	f.debts.now = func() time.Time { return time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC) }
	loan := f.createDebt(t, CreateDebtInput{Name: "Car", Type: models.DebtTypeLoan, InitialBalance: dec(1200), InstallmentMonths: intPtr(12)})

	detail, err := f.debts.Get(context.Background(), testPlan, loan.ID)
	require.NoError(t, err)

	assert.Equal(t, models.DebtStatusActive, detail.Status)
	assertDecimal(t, dec(100), detail.Due.EffectiveAmount)

	_, err = f.debts.Get(context.Background(), "other-plan", loan.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDebtService_Summary(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	loan := f.loan(t, "Loan", 1000)
	card := f.createDebt(t, CreateDebtInput{
		Name: "Visa", Type: models.DebtTypeCreditCard, InitialBalance: dec(0),
		CreditLimit: decimal.NewNullDecimal(dec(1000)),
	})
	done := f.loan(t, "Done", 50)
	f.pay(t, done.ID, 50, IncomeFunding{})
	f.pay(t, loan.ID, 250, CardFunding{CardDebtID: card.ID})

	s, err := f.debts.Summary(ctx, testPlan, march2024)
	require.NoError(t, err)

	assert.Equal(t, "2024-03", s.Period)
	assert.Equal(t, 2, s.ActiveCount)
	assert.Equal(t, 1, s.PaidCount)
	assertDecimal(t, dec(1050), s.TotalInitial)
	assertDecimal(t, dec(1000), s.TotalBalance)
	assertDecimal(t, dec(300), s.TotalRepaid)
	assertDecimal(t, dec(300), s.PaidThisPeriod)
	assert.Len(t, s.Debts, 3)

	require.Len(t, s.CreditCards, 1)
	cs := s.CreditCards[0]
	assertDecimal(t, dec(250), cs.Balance)
	require.True(t, cs.Available.Valid)
	assertDecimal(t, dec(750), cs.Available.Decimal)
	assertDecimal(t, dec(25), cs.Utilization.Decimal)

	_, err = f.debts.Summary(ctx, testPlan, models.Period{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDebtService_ActiveDebts(t *testing.T) {
	f := newLedgerFixture(t)
	a := f.loan(t, "A", 100)
	b := f.loan(t, "B", 100)
	f.pay(t, b.ID, 100, IncomeFunding{})

	active, err := f.debts.ActiveDebts(context.Background(), testPlan)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)
}
