package repository

import (
	"context"
	"time"

	"github.com/sjperalta/debt-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DebtRepository defines the interface for debt data access
type DebtRepository interface {
	FindByID(ctx context.Context, planID, id string) (*models.Debt, error)
	// FindByIDForUpdate reads the row under a write lock; only meaningful
	// inside a transaction.
	FindByIDForUpdate(ctx context.Context, planID, id string) (*models.Debt, error)
	ListByPlan(ctx context.Context, planID string) ([]models.Debt, error)
	FindByExpenseID(ctx context.Context, planID, expenseID string) (*models.Debt, error)
	// ListWithDueDate returns manual debts with a due date on or before cutoff
	// that still carry a balance, across all plans.
	ListWithDueDate(ctx context.Context, cutoff time.Time) ([]models.Debt, error)
	Create(ctx context.Context, debt *models.Debt) error
	Update(ctx context.Context, debt *models.Debt) error
	Delete(ctx context.Context, planID, id string) error
}

type debtRepository struct {
	db *gorm.DB
}

// NewDebtRepository creates a new debt repository
func NewDebtRepository(db *gorm.DB) DebtRepository {
	return &debtRepository{db: db}
}

func (r *debtRepository) FindByID(ctx context.Context, planID, id string) (*models.Debt, error) {
	var debt models.Debt
	err := r.db.WithContext(ctx).
		Where("id = ? AND plan_id = ?", id, planID).
		First(&debt).Error
	if err != nil {
		return nil, translate(err)
	}
	return &debt, nil
}

func (r *debtRepository) FindByIDForUpdate(ctx context.Context, planID, id string) (*models.Debt, error) {
	var debt models.Debt
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND plan_id = ?", id, planID).
		First(&debt).Error
	if err != nil {
		return nil, translate(err)
	}
	return &debt, nil
}

func (r *debtRepository) ListByPlan(ctx context.Context, planID string) ([]models.Debt, error) {
	var debts []models.Debt
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("created_at ASC, id ASC").
		Find(&debts).Error
	return debts, err
}

func (r *debtRepository) FindByExpenseID(ctx context.Context, planID, expenseID string) (*models.Debt, error) {
	var debt models.Debt
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND source_type = ? AND source_expense_id = ?", planID, models.SourceTypeExpense, expenseID).
		Order("created_at ASC").
		First(&debt).Error
	if err != nil {
		return nil, translate(err)
	}
	return &debt, nil
}

func (r *debtRepository) ListWithDueDate(ctx context.Context, cutoff time.Time) ([]models.Debt, error) {
	var debts []models.Debt
	err := r.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date <= ?", cutoff).
		Where("current_balance > 0").
		Where("source_type IS NULL OR source_type <> ?", models.SourceTypeExpense).
		Order("due_date ASC, id ASC").
		Find(&debts).Error
	return debts, err
}

func (r *debtRepository) Create(ctx context.Context, debt *models.Debt) error {
	return r.db.WithContext(ctx).Create(debt).Error
}

func (r *debtRepository) Update(ctx context.Context, debt *models.Debt) error {
	return r.db.WithContext(ctx).Save(debt).Error
}

func (r *debtRepository) Delete(ctx context.Context, planID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND plan_id = ?", id, planID).
		Delete(&models.Debt{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
