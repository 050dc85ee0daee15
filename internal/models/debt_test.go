package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDebt_PlannedPayment(t *testing.T) {
	twelve := 12

	tests := []struct {
		name string
		debt Debt
		want string
	}{
		{
			name: "Installments",
			debt: Debt{InitialBalance: decimal.NewFromInt(1200), InstallmentMonths: &twelve},
			want: "100",
		},
		{
			name: "Minimum above installment",
			debt: Debt{
				InitialBalance:    decimal.NewFromInt(1200),
				InstallmentMonths: &twelve,
				MonthlyMinimum:    decimal.NewNullDecimal(decimal.NewFromInt(150)),
			},
			want: "150",
		},
		{
			name: "Lump sum",
			debt: Debt{InitialBalance: decimal.NewFromInt(700)},
			want: "700",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.debt.RecomputeAmount()
			assert.True(t, decimal.RequireFromString(tt.want).Equal(tt.debt.Amount), tt.debt.Amount.String())
		})
	}
}

func TestDebt_RepaymentAndCharge(t *testing.T) {
	d := Debt{InitialBalance: decimal.NewFromInt(1000), CurrentBalance: decimal.NewFromInt(1000)}

	d.ApplyRepayment(decimal.NewFromInt(250))
	assert.True(t, decimal.NewFromInt(750).Equal(d.CurrentBalance))
	assert.True(t, decimal.NewFromInt(250).Equal(d.PaidAmount))
	assert.True(t, decimal.NewFromInt(25).Equal(d.PercentPaid()))

	d.ApplyCharge(decimal.NewFromInt(50))
	assert.True(t, decimal.NewFromInt(800).Equal(d.CurrentBalance))
	assert.True(t, decimal.NewFromInt(250).Equal(d.PaidAmount), "charges do not count as repaid")
	assert.True(t, d.IsActive())
}

func TestDebt_PercentPaidWithoutInitialBalance(t *testing.T) {
	d := Debt{CurrentBalance: decimal.NewFromInt(40)}
	assert.True(t, d.PercentPaid().IsZero())
}

func TestDebt_IsExpenseLinked(t *testing.T) {
	source := SourceTypeExpense
	expenseID := "exp-1"

	assert.False(t, (&Debt{}).IsExpenseLinked())
	assert.False(t, (&Debt{SourceType: &source}).IsExpenseLinked())
	assert.True(t, (&Debt{SourceType: &source, SourceExpenseID: &expenseID}).IsExpenseLinked())
}

func TestDebtType(t *testing.T) {
	assert.True(t, DebtTypeCreditCard.IsCard())
	assert.True(t, DebtTypeStoreCard.IsCard())
	assert.False(t, DebtTypeLoan.IsCard())
	assert.True(t, DebtTypeHirePurchase.Valid())
	assert.False(t, DebtType("payday").Valid())
}

func TestPayment_NotedPeriod(t *testing.T) {
	p := Payment{Notes: "catch-up " + PeriodNote(Period{Year: 2024, Month: 2})}
	period, ok := p.NotedPeriod()
	assert.True(t, ok)
	assert.Equal(t, "2024-02", period.Key())

	_, ok = (&Payment{Notes: "month:soon"}).NotedPeriod()
	assert.False(t, ok)
}

func TestSumPayments(t *testing.T) {
	total := SumPayments([]Payment{
		{Amount: decimal.RequireFromString("10.25")},
		{Amount: decimal.RequireFromString("4.75")},
	})
	assert.True(t, decimal.NewFromInt(15).Equal(total))
	assert.True(t, SumPayments(nil).IsZero())
}
