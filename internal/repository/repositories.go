package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxFunc runs fn inside a unit of work. repos is the set the transaction was
// started from; fn receives the set bound to the transaction.
type TxFunc func(ctx context.Context, repos *Repositories, fn func(tx *Repositories) error) error

// Repositories holds all repository instances
type Repositories struct {
	Debt    DebtRepository
	Payment PaymentRepository
	Outbox  OutboxRepository
	Expense ExpenseRepository

	tx TxFunc
}

// New assembles a repository set from its parts. A nil tx runs transactions
// inline, which is what callers already inside a unit of work want.
func New(debt DebtRepository, payment PaymentRepository, outbox OutboxRepository, expense ExpenseRepository, tx TxFunc) *Repositories {
	return &Repositories{
		Debt:    debt,
		Payment: payment,
		Outbox:  outbox,
		Expense: expense,
		tx:      tx,
	}
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return New(
		NewDebtRepository(db),
		NewPaymentRepository(db),
		NewOutboxRepository(db),
		NewExpenseRepository(db),
		gormTransaction(db),
	)
}

// Transaction runs fn atomically: every write made through the repositories
// passed to fn commits together or not at all.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	if r.tx == nil {
		return fn(r)
	}
	return r.tx(ctx, r, fn)
}

func gormTransaction(db *gorm.DB) TxFunc {
	return func(ctx context.Context, _ *Repositories, fn func(tx *Repositories) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(NewRepositories(tx))
		})
	}
}
