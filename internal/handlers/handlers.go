package handlers

import (
	"github.com/sjperalta/debt-ledger/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health      *HealthHandler
	Debt        *DebtHandler
	Payment     *PaymentHandler
	Projection  *ProjectionHandler
	Export      *ExportHandler
	ExpenseDebt *ExpenseDebtHandler
	Job         *JobHandler
}

// NewHandlers creates all handler instances. ping may be nil when the
// service runs without a database.
func NewHandlers(svcs *services.Services, ping Pinger) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(ping),
		Debt:        NewDebtHandler(svcs.Debt),
		Payment:     NewPaymentHandler(svcs.Payment, svcs.Debt),
		Projection:  NewProjectionHandler(svcs.Projection),
		Export:      NewExportHandler(svcs.Export),
		ExpenseDebt: NewExpenseDebtHandler(svcs.ExpenseSync),
		Job:         NewJobHandler(svcs.Job),
	}
}
