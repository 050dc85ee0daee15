package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is the slice of the surrounding application's expense record that
// the debt sync reads and updates.
type Expense struct {
	ID           string          `gorm:"primaryKey" json:"id"`
	PlanID       string          `gorm:"not null;index" json:"plan_id"`
	Name         string          `gorm:"not null" json:"name"`
	CategoryID   *string         `json:"category_id,omitempty"`
	CategoryName *string         `json:"category_name,omitempty"`
	PeriodKey    string          `gorm:"not null;index" json:"period_key"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaidAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"paid_amount"`
	Paid         bool            `gorm:"not null;default:false" json:"paid"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Expense
func (Expense) TableName() string {
	return "expenses"
}

// Remaining returns the unpaid part of the expense, floored at zero
func (e *Expense) Remaining() decimal.Decimal {
	return decimal.Max(decimal.Zero, e.Amount.Sub(e.PaidAmount))
}

// ApplyPaymentDelta moves the paid amount by delta, clamped to [0, amount]
func (e *Expense) ApplyPaymentDelta(delta decimal.Decimal) {
	paid := decimal.Max(decimal.Zero, e.PaidAmount.Add(delta))
	e.PaidAmount = decimal.Min(e.Amount, paid)
	e.Paid = e.Amount.IsPositive() && e.PaidAmount.GreaterThanOrEqual(e.Amount)
}
