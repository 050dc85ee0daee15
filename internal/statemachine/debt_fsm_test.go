package statemachine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebtFSM_Sync(t *testing.T) {
	tests := []struct {
		name     string
		paid     bool
		balance  string
		wantPaid bool
		wantCan  string
	}{
		{name: "active debt paid off settles", paid: false, balance: "0", wantPaid: true, wantCan: EventReopen},
		{name: "paid card charged again reopens", paid: true, balance: "25.50", wantPaid: false, wantCan: EventSettle},
		{name: "active debt with balance stays active", paid: false, balance: "10", wantPaid: false, wantCan: EventSettle},
		{name: "paid debt at zero stays paid", paid: true, balance: "0", wantPaid: true, wantCan: EventReopen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debt := &models.Debt{ID: "d1", Paid: tt.paid, CurrentBalance: decimal.RequireFromString(tt.balance)}
			machine := NewDebtFSM(debt)

			require.NoError(t, machine.Sync(context.Background()))
			assert.Equal(t, tt.wantPaid, debt.Paid)
			assert.True(t, machine.Can(tt.wantCan))
		})
	}
}

func TestSyncPaid(t *testing.T) {
	debt := &models.Debt{ID: "d1", CurrentBalance: decimal.Zero}
	require.NoError(t, SyncPaid(context.Background(), debt))
	assert.True(t, debt.Paid)
	assert.Equal(t, models.DebtStatusPaid, debt.Status())
}
