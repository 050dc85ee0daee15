package repository

import (
	"context"
	"time"

	"github.com/sjperalta/debt-ledger/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment ledger data access.
// Listings are always ordered by paid_at ascending.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListByDebt(ctx context.Context, debtID string) ([]models.Payment, error)
	ListByDebtBetween(ctx context.Context, debtID string, from, to time.Time) ([]models.Payment, error)
	ListByPlanPeriod(ctx context.Context, planID string, period models.Period) ([]models.Payment, error)
	LatestForDebt(ctx context.Context, debtID string) (*models.Payment, error)
	Delete(ctx context.Context, id string) error
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *paymentRepository) ListByDebt(ctx context.Context, debtID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("debt_id = ?", debtID).
		Order("paid_at ASC, created_at ASC").
		Find(&payments).Error
	return payments, err
}

// ListByDebtBetween returns payments with paid_at in (from, to]
func (r *paymentRepository) ListByDebtBetween(ctx context.Context, debtID string, from, to time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("debt_id = ? AND paid_at > ? AND paid_at <= ?", debtID, from, to).
		Order("paid_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) ListByPlanPeriod(ctx context.Context, planID string, period models.Period) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Select("debt_payments.*").
		Joins("JOIN debts ON debts.id = debt_payments.debt_id").
		Where("debts.plan_id = ? AND debt_payments.year = ? AND debt_payments.month = ?", planID, period.Year, period.Month).
		Order("debt_payments.paid_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) LatestForDebt(ctx context.Context, debtID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("debt_id = ?", debtID).
		Order("paid_at DESC, created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *paymentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Payment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
