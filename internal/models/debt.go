package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DebtType classifies what kind of balance a debt represents
type DebtType string

// Debt type constants
const (
	DebtTypeCreditCard   DebtType = "credit_card"
	DebtTypeStoreCard    DebtType = "store_card"
	DebtTypeLoan         DebtType = "loan"
	DebtTypeMortgage     DebtType = "mortgage"
	DebtTypeHirePurchase DebtType = "hire_purchase"
	DebtTypeOther        DebtType = "other"
)

// Valid reports whether t is a known debt type
func (t DebtType) Valid() bool {
	switch t {
	case DebtTypeCreditCard, DebtTypeStoreCard, DebtTypeLoan, DebtTypeMortgage, DebtTypeHirePurchase, DebtTypeOther:
		return true
	}
	return false
}

// IsCard reports whether the type can fund payments against other debts
func (t DebtType) IsCard() bool {
	return t == DebtTypeCreditCard || t == DebtTypeStoreCard
}

// SourceTypeExpense marks a debt that mirrors an unpaid expense
const SourceTypeExpense = "expense"

// Debt status constants, driven by the debt state machine
const (
	DebtStatusActive = "active"
	DebtStatusPaid   = "paid"
)

// Debt represents one owed balance inside a budget plan
type Debt struct {
	ID                       string              `gorm:"primaryKey;type:uuid" json:"id"`
	PlanID                   string              `gorm:"not null;index" json:"plan_id"`
	Name                     string              `gorm:"not null" json:"name"`
	Type                     DebtType            `gorm:"not null" json:"type"`
	CreditLimit              decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"credit_limit"`
	InitialBalance           decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"initial_balance"`
	CurrentBalance           decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"current_balance"`
	Amount                   decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"amount"`
	Paid                     bool                `gorm:"not null;default:false;index" json:"paid"`
	PaidAmount               decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"paid_amount"`
	MonthlyMinimum           decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"monthly_minimum"`
	InterestRate             decimal.NullDecimal `gorm:"type:numeric(6,3)" json:"interest_rate"`
	InstallmentMonths        *int                `json:"installment_months"`
	DueDay                   *int                `json:"due_day"`
	DueDate                  *time.Time          `gorm:"type:date" json:"due_date"`
	DefaultPaymentSource     PaymentSource       `gorm:"not null;default:income" json:"default_payment_source"`
	DefaultPaymentCardDebtID *string             `gorm:"type:uuid" json:"default_payment_card_debt_id"`

	// Expense linkage; set only on synthetic debts
	SourceType         *string `json:"source_type,omitempty"`
	SourceExpenseID    *string `gorm:"index" json:"source_expense_id,omitempty"`
	SourceMonthKey     *string `json:"source_month_key,omitempty"`
	SourceCategoryID   *string `json:"source_category_id,omitempty"`
	SourceCategoryName *string `json:"source_category_name,omitempty"`
	SourceExpenseName  *string `json:"source_expense_name,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Debt
func (Debt) TableName() string {
	return "debts"
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (d *Debt) BeforeCreate(tx *gorm.DB) error {
	d.EnsureID()
	return nil
}

// EnsureID assigns a new identifier if the debt has none
func (d *Debt) EnsureID() {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
}

// Status returns the lifecycle state derived from the paid flag
func (d *Debt) Status() string {
	if d.Paid {
		return DebtStatusPaid
	}
	return DebtStatusActive
}

// IsCard reports whether this debt can fund payments against other debts
func (d *Debt) IsCard() bool {
	return d.Type.IsCard()
}

// IsExpenseLinked reports whether this debt mirrors an external expense
func (d *Debt) IsExpenseLinked() bool {
	return d.SourceType != nil && *d.SourceType == SourceTypeExpense && d.SourceExpenseID != nil
}

// IsActive reports whether the debt still carries an outstanding balance
func (d *Debt) IsActive() bool {
	return !d.Paid && d.CurrentBalance.IsPositive()
}

// ApplyRepayment reduces the balance by amount and records it as repaid
func (d *Debt) ApplyRepayment(amount decimal.Decimal) {
	d.CurrentBalance = d.CurrentBalance.Sub(amount)
	d.PaidAmount = d.PaidAmount.Add(amount)
}

// ApplyCharge increases the balance without touching the repaid total
func (d *Debt) ApplyCharge(amount decimal.Decimal) {
	d.CurrentBalance = d.CurrentBalance.Add(amount)
}

// PercentPaid returns (initial - current) / initial as a percentage
func (d *Debt) PercentPaid() decimal.Decimal {
	if !d.InitialBalance.IsPositive() {
		return decimal.Zero
	}
	return d.InitialBalance.Sub(d.CurrentBalance).
		Div(d.InitialBalance).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// BaselineInstallment returns initialBalance / installmentMonths, or the whole
// initial balance for lump-sum debts.
func (d *Debt) BaselineInstallment() decimal.Decimal {
	if d.InstallmentMonths != nil && *d.InstallmentMonths > 0 {
		return d.InitialBalance.Div(decimal.NewFromInt(int64(*d.InstallmentMonths)))
	}
	return d.InitialBalance
}

// PlannedPayment returns the periodic amount the plan terms call for: the
// installment baseline raised to the monthly minimum.
func (d *Debt) PlannedPayment() decimal.Decimal {
	amount := d.BaselineInstallment()
	if d.MonthlyMinimum.Valid && d.MonthlyMinimum.Decimal.GreaterThan(amount) {
		amount = d.MonthlyMinimum.Decimal
	}
	return amount
}

// RecomputeAmount refreshes the stored due-this-period baseline from plan terms
func (d *Debt) RecomputeAmount() {
	d.Amount = d.PlannedPayment().Round(2)
}

// DebtResponse is the API representation of a debt
type DebtResponse struct {
	Debt
	Status      string          `json:"status"`
	PercentPaid decimal.Decimal `json:"percent_paid"`
}

// ToResponse converts a debt to its API representation
func (d *Debt) ToResponse() DebtResponse {
	return DebtResponse{
		Debt:        *d,
		Status:      d.Status(),
		PercentPaid: d.PercentPaid(),
	}
}
