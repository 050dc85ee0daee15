package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentSource identifies how a payment was funded
type PaymentSource string

// Payment source constants
const (
	PaymentSourceIncome     PaymentSource = "income"
	PaymentSourceExtraFunds PaymentSource = "extra_funds"
	PaymentSourceCreditCard PaymentSource = "credit_card"
)

// Valid reports whether s is a known funding source
func (s PaymentSource) Valid() bool {
	switch s {
	case PaymentSourceIncome, PaymentSourceExtraFunds, PaymentSourceCreditCard:
		return true
	}
	return false
}

// Payment is a ledger entry recording an amount applied against a debt
type Payment struct {
	ID         string          `gorm:"primaryKey;type:uuid" json:"id"`
	DebtID     string          `gorm:"type:uuid;not null;index" json:"debt_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaidAt     time.Time       `gorm:"not null;index" json:"paid_at"`
	Year       int             `gorm:"not null" json:"year"`
	Month      int             `gorm:"not null" json:"month"`
	Source     PaymentSource   `gorm:"not null" json:"source"`
	CardDebtID *string         `gorm:"type:uuid;index" json:"card_debt_id,omitempty"`
	Notes      string          `json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "debt_payments"
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	p.EnsureID()
	return nil
}

// EnsureID assigns a new identifier if the payment has none
func (p *Payment) EnsureID() {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
}

// Period returns the ledger period the payment was booked against
func (p *Payment) Period() Period {
	return Period{Year: p.Year, Month: p.Month}
}

// IsCardFunded reports whether the payment was charged to a card debt
func (p *Payment) IsCardFunded() bool {
	return p.Source == PaymentSourceCreditCard && p.CardDebtID != nil
}

const periodNotePrefix = "month:"

// PeriodNote renders the note tag embedding the caller-supplied period key
func PeriodNote(period Period) string {
	return periodNotePrefix + period.Key()
}

// NotedPeriod extracts the period key embedded in the notes, if any
func (p *Payment) NotedPeriod() (Period, bool) {
	for _, field := range strings.Fields(p.Notes) {
		if !strings.HasPrefix(field, periodNotePrefix) {
			continue
		}
		period, err := ParsePeriod(strings.TrimPrefix(field, periodNotePrefix))
		if err == nil {
			return period, true
		}
	}
	return Period{}, false
}

// String is used in log lines
func (p *Payment) String() string {
	return fmt.Sprintf("payment %s on debt %s: %s (%s, %s)", p.ID, p.DebtID, p.Amount.StringFixed(2), p.Source, p.Period().Key())
}

// SumPayments totals the amounts of the given payments
func SumPayments(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
