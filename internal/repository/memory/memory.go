// Package memory is an in-process implementation of the repository
// contracts. Transactions are serialized and roll back by restoring a
// snapshot, so it honors the same all-or-nothing guarantee as postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/sjperalta/debt-ledger/internal/repository"
)

// Store keeps debts, payments, outbox events and expenses in maps
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	debts    map[string]models.Debt
	payments map[string]models.Payment
	events   map[string]models.OutboxEvent
	expenses map[string]models.Expense

	seq int64
	now func() time.Time
}

// New returns an empty store
func New() *Store {
	return &Store{
		debts:    map[string]models.Debt{},
		payments: map[string]models.Payment{},
		events:   map[string]models.OutboxEvent{},
		expenses: map[string]models.Expense{},
		now:      time.Now,
	}
}

// Repositories exposes the store through the repository contracts
func (s *Store) Repositories() *repository.Repositories {
	return repository.New(s.Debts(), s.Payments(), s.Outbox(), s.Expenses(), s.Transaction)
}

// Debts returns the debt repository view of the store
func (s *Store) Debts() repository.DebtRepository { return debtRepo{s} }

// Payments returns the payment repository view of the store
func (s *Store) Payments() repository.PaymentRepository { return paymentRepo{s} }

// Outbox returns the outbox repository view of the store
func (s *Store) Outbox() repository.OutboxRepository { return outboxRepo{s} }

// Expenses returns the expense repository view of the store
func (s *Store) Expenses() repository.ExpenseRepository { return expenseRepo{s} }

// Transaction is a repository.TxFunc. Transactions run one at a time; on
// error every map is restored to its state before fn ran. Nested calls
// join the outer transaction.
func (s *Store) Transaction(ctx context.Context, repos *repository.Repositories, fn func(tx *repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	inner := repository.New(repos.Debt, repos.Payment, repos.Outbox, repos.Expense, nil)
	if err := fn(inner); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// SeedExpense inserts or replaces an expense row
func (s *Store) SeedExpense(e models.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.ID] = e
}

type snapshot struct {
	debts    map[string]models.Debt
	payments map[string]models.Payment
	events   map[string]models.OutboxEvent
	expenses map[string]models.Expense
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		debts:    cloneMap(s.debts),
		payments: cloneMap(s.payments),
		events:   cloneMap(s.events),
		expenses: cloneMap(s.expenses),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debts = snap.debts
	s.payments = snap.payments
	s.events = snap.events
	s.expenses = snap.expenses
}

func cloneMap[T any](in map[string]T) map[string]T {
	out := make(map[string]T, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// stamp returns a strictly increasing timestamp so insertion order survives
// equal wall-clock readings.
func (s *Store) stamp() time.Time {
	s.seq++
	return s.now().Add(time.Duration(s.seq) * time.Nanosecond)
}

type debtRepo struct{ s *Store }

func (r debtRepo) FindByID(_ context.Context, planID, id string) (*models.Debt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.debts[id]
	if !ok || d.PlanID != planID {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r debtRepo) FindByIDForUpdate(ctx context.Context, planID, id string) (*models.Debt, error) {
	return r.FindByID(ctx, planID, id)
}

func (r debtRepo) ListByPlan(_ context.Context, planID string) ([]models.Debt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Debt
	for _, d := range r.s.debts {
		if d.PlanID == planID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r debtRepo) FindByExpenseID(_ context.Context, planID, expenseID string) (*models.Debt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *models.Debt
	for _, d := range r.s.debts {
		if d.PlanID != planID || !d.IsExpenseLinked() || *d.SourceExpenseID != expenseID {
			continue
		}
		if found == nil || d.CreatedAt.Before(found.CreatedAt) {
			d := d
			found = &d
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r debtRepo) ListWithDueDate(_ context.Context, cutoff time.Time) ([]models.Debt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Debt
	for _, d := range r.s.debts {
		if d.DueDate == nil || d.DueDate.After(cutoff) {
			continue
		}
		if !d.CurrentBalance.IsPositive() || d.IsExpenseLinked() {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(*out[j].DueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDate.Before(*out[j].DueDate)
	})
	return out, nil
}

func (r debtRepo) Create(_ context.Context, debt *models.Debt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	debt.EnsureID()
	now := r.s.stamp()
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = now
	}
	debt.UpdatedAt = now
	r.s.debts[debt.ID] = *debt
	return nil
}

func (r debtRepo) Update(_ context.Context, debt *models.Debt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.debts[debt.ID]; !ok {
		return repository.ErrNotFound
	}
	debt.UpdatedAt = r.s.stamp()
	r.s.debts[debt.ID] = *debt
	return nil
}

func (r debtRepo) Delete(_ context.Context, planID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.debts[id]
	if !ok || d.PlanID != planID {
		return repository.ErrNotFound
	}
	delete(r.s.debts, id)
	for pid, p := range r.s.payments {
		if p.DebtID == id {
			delete(r.s.payments, pid)
		}
	}
	return nil
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, payment *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	payment.EnsureID()
	payment.CreatedAt = r.s.stamp()
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r paymentRepo) FindByID(_ context.Context, id string) (*models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r paymentRepo) ListByDebt(_ context.Context, debtID string) ([]models.Payment, error) {
	return r.filter(func(p models.Payment) bool { return p.DebtID == debtID }), nil
}

func (r paymentRepo) ListByDebtBetween(_ context.Context, debtID string, from, to time.Time) ([]models.Payment, error) {
	return r.filter(func(p models.Payment) bool {
		return p.DebtID == debtID && p.PaidAt.After(from) && !p.PaidAt.After(to)
	}), nil
}

func (r paymentRepo) ListByPlanPeriod(_ context.Context, planID string, period models.Period) ([]models.Payment, error) {
	r.s.mu.RLock()
	debtIDs := map[string]bool{}
	for _, d := range r.s.debts {
		if d.PlanID == planID {
			debtIDs[d.ID] = true
		}
	}
	r.s.mu.RUnlock()
	return r.filter(func(p models.Payment) bool {
		return debtIDs[p.DebtID] && p.Period() == period
	}), nil
}

func (r paymentRepo) LatestForDebt(ctx context.Context, debtID string) (*models.Payment, error) {
	payments, _ := r.ListByDebt(ctx, debtID)
	if len(payments) == 0 {
		return nil, repository.ErrNotFound
	}
	latest := payments[len(payments)-1]
	return &latest, nil
}

func (r paymentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.payments, id)
	return nil
}

func (r paymentRepo) filter(keep func(models.Payment) bool) []models.Payment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Payment
	for _, p := range r.s.payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].PaidAt.Before(out[j].PaidAt)
	})
	return out
}

type outboxRepo struct{ s *Store }

func (r outboxRepo) Create(_ context.Context, event *models.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.CreatedAt = r.s.stamp()
	r.s.events[event.ID] = *event
	return nil
}

func (r outboxRepo) FindByID(_ context.Context, id string) (*models.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r outboxRepo) ListUnpublished(_ context.Context, limit int) ([]models.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.OutboxEvent
	for _, e := range r.s.events {
		if e.PublishedAt == nil {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r outboxRepo) MarkPublished(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.PublishedAt = &at
	r.s.events[id] = e
	return nil
}

func (r outboxRepo) MarkProcessed(_ context.Context, id string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if e.ProcessedAt != nil {
		return false, nil
	}
	e.ProcessedAt = &at
	r.s.events[id] = e
	return true, nil
}

type expenseRepo struct{ s *Store }

func (r expenseRepo) FindByID(_ context.Context, planID, id string) (*models.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.expenses[id]
	if !ok || e.PlanID != planID {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r expenseRepo) ApplyExpensePayment(_ context.Context, planID, periodKey, expenseID string, delta decimal.Decimal) (*models.Expense, decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.expenses[expenseID]
	if !ok || e.PlanID != planID || e.PeriodKey != periodKey {
		return nil, decimal.Zero, repository.ErrNotFound
	}
	e.ApplyPaymentDelta(delta)
	e.UpdatedAt = r.s.stamp()
	r.s.expenses[expenseID] = e
	return &e, e.Remaining(), nil
}

func (r expenseRepo) ListUnpaidBefore(_ context.Context, period models.Period) ([]models.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Expense
	for _, e := range r.s.expenses {
		if e.PeriodKey < period.Key() && e.PaidAmount.LessThan(e.Amount) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PeriodKey == out[j].PeriodKey {
			return out[i].ID < out[j].ID
		}
		return out[i].PeriodKey < out[j].PeriodKey
	})
	return out, nil
}
