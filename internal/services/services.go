package services

import (
	"github.com/sjperalta/debt-ledger/internal/config"
	"github.com/sjperalta/debt-ledger/internal/jobs"
	"github.com/sjperalta/debt-ledger/internal/repository"
)

// Services holds all service instances
type Services struct {
	Debt        *DebtService
	Payment     *PaymentService
	Projection  *ProjectionService
	Export      *ExportService
	ExpenseSync *ExpenseSyncService
	Outbox      *OutboxDispatcher
	Accrual     *AccrualService
	Job         *JobService
}

// NewServices creates all service instances. When publisher is nil, ledger
// events are handed to the in-process expense sync.
func NewServices(repos *repository.Repositories, worker *jobs.Worker, publisher Publisher, cfg *config.Config) *Services {
	syncSvc := NewExpenseSyncService(repos)
	if publisher == nil {
		publisher = NewLocalPublisher(syncSvc)
	}
	dispatcher := NewOutboxDispatcher(repos.Outbox, publisher, cfg.OutboxBatchSize)

	debtSvc := NewDebtService(repos)
	paymentSvc := NewPaymentService(repos, dispatcher, worker)
	projectionSvc := NewProjectionService(debtSvc, cfg.ProjectionMaxMonths)

	return &Services{
		Debt:        debtSvc,
		Payment:     paymentSvc,
		Projection:  projectionSvc,
		Export:      NewExportService(debtSvc, paymentSvc, projectionSvc),
		ExpenseSync: syncSvc,
		Outbox:      dispatcher,
		Accrual:     NewAccrualService(repos, cfg.AccrualGrace),
		Job:         NewJobService(worker),
	}
}
