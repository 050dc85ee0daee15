package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/debt-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExpenseRepository is the contract the debt sync needs from the expense store
type ExpenseRepository interface {
	FindByID(ctx context.Context, planID, id string) (*models.Expense, error)
	// ApplyExpensePayment moves the expense's paid amount by delta and returns
	// the updated expense with its remaining unpaid amount.
	ApplyExpensePayment(ctx context.Context, planID, periodKey, expenseID string, delta decimal.Decimal) (*models.Expense, decimal.Decimal, error)
	// ListUnpaidBefore returns expenses of periods earlier than period that
	// are not fully paid, across all plans.
	ListUnpaidBefore(ctx context.Context, period models.Period) ([]models.Expense, error)
}

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) FindByID(ctx context.Context, planID, id string) (*models.Expense, error) {
	var expense models.Expense
	err := r.db.WithContext(ctx).
		Where("id = ? AND plan_id = ?", id, planID).
		First(&expense).Error
	if err != nil {
		return nil, translate(err)
	}
	return &expense, nil
}

func (r *expenseRepository) ApplyExpensePayment(ctx context.Context, planID, periodKey, expenseID string, delta decimal.Decimal) (*models.Expense, decimal.Decimal, error) {
	var expense models.Expense
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND plan_id = ? AND period_key = ?", expenseID, planID, periodKey).
		First(&expense).Error
	if err != nil {
		return nil, decimal.Zero, translate(err)
	}

	expense.ApplyPaymentDelta(delta)
	err = r.db.WithContext(ctx).
		Model(&expense).
		Select("paid_amount", "paid", "updated_at").
		Updates(&expense).Error
	if err != nil {
		return nil, decimal.Zero, err
	}
	return &expense, expense.Remaining(), nil
}

func (r *expenseRepository) ListUnpaidBefore(ctx context.Context, period models.Period) ([]models.Expense, error) {
	var expenses []models.Expense
	err := r.db.WithContext(ctx).
		Where("period_key < ? AND paid_amount < amount", period.Key()).
		Order("period_key ASC, id ASC").
		Find(&expenses).Error
	return expenses, err
}
