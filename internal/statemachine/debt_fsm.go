package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/debt-ledger/internal/models"
)

// Debt lifecycle events
const (
	EventSettle = "settle"
	EventReopen = "reopen"
)

// DebtFSM keeps a debt's paid flag in step with its balance
type DebtFSM struct {
	debt *models.Debt
	fsm  *fsm.FSM
}

// NewDebtFSM creates a new debt state machine
func NewDebtFSM(debt *models.Debt) *DebtFSM {
	dfsm := &DebtFSM{
		debt: debt,
	}

	dfsm.fsm = fsm.NewFSM(
		debt.Status(),
		fsm.Events{
			// active → paid (balance reached zero)
			{Name: EventSettle, Src: []string{models.DebtStatusActive}, Dst: models.DebtStatusPaid},

			// paid → active (charged again, reversal, accrual)
			{Name: EventReopen, Src: []string{models.DebtStatusPaid}, Dst: models.DebtStatusActive},
		},
		fsm.Callbacks{},
	)

	return dfsm
}

// Sync fires whichever transition the current balance calls for, if any,
// and writes the resulting state back to the debt.
func (d *DebtFSM) Sync(ctx context.Context) error {
	var event string
	switch {
	case d.debt.CurrentBalance.IsZero() && d.fsm.Current() == models.DebtStatusActive:
		event = EventSettle
	case !d.debt.CurrentBalance.IsZero() && d.fsm.Current() == models.DebtStatusPaid:
		event = EventReopen
	default:
		return nil
	}

	if err := d.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("failed to %s debt %s: %w", event, d.debt.ID, err)
	}

	d.debt.Paid = d.fsm.Current() == models.DebtStatusPaid
	return nil
}

// Current returns the current state
func (d *DebtFSM) Current() string {
	return d.fsm.Current()
}

// Can checks if a transition is possible
func (d *DebtFSM) Can(event string) bool {
	return d.fsm.Can(event)
}

// SyncPaid is shorthand for running the state machine over a debt
func SyncPaid(ctx context.Context, debt *models.Debt) error {
	return NewDebtFSM(debt).Sync(ctx)
}
