package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Outbox event type constants
const (
	EventExpensePaymentApplied  = "expense_payment_applied"
	EventExpensePaymentReversed = "expense_payment_reversed"
)

// OutboxEvent is a ledger event written in the same transaction as the
// payment it describes and delivered to the expense sync afterwards.
type OutboxEvent struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	PlanID      string     `gorm:"not null;index" json:"plan_id"`
	EventType   string     `gorm:"not null" json:"event_type"`
	AggregateID string     `gorm:"type:uuid;not null;index" json:"aggregate_id"`
	Payload     string     `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// TableName specifies the table name for OutboxEvent
func (OutboxEvent) TableName() string {
	return "debt_outbox_events"
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (e *OutboxEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// ExpensePaymentPayload describes a change to an expense's paid amount.
// Delta is positive for an applied payment and negative for a reversal.
type ExpensePaymentPayload struct {
	PaymentID    string          `json:"payment_id"`
	DebtID       string          `json:"debt_id"`
	ExpenseID    string          `json:"expense_id"`
	PeriodKey    string          `json:"period_key"`
	CategoryID   *string         `json:"category_id,omitempty"`
	CategoryName *string         `json:"category_name,omitempty"`
	ExpenseName  string          `json:"expense_name"`
	Delta        decimal.Decimal `json:"delta"`
}

// NewExpensePaymentEvent builds an outbox event for an expense-linked debt
func NewExpensePaymentEvent(eventType string, debt *Debt, payment *Payment, delta decimal.Decimal) (*OutboxEvent, error) {
	payload := ExpensePaymentPayload{
		PaymentID:    payment.ID,
		DebtID:       debt.ID,
		CategoryID:   debt.SourceCategoryID,
		CategoryName: debt.SourceCategoryName,
		Delta:        delta,
	}
	if debt.SourceExpenseID != nil {
		payload.ExpenseID = *debt.SourceExpenseID
	}
	if debt.SourceMonthKey != nil {
		payload.PeriodKey = *debt.SourceMonthKey
	}
	if debt.SourceExpenseName != nil {
		payload.ExpenseName = *debt.SourceExpenseName
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:          uuid.NewString(),
		PlanID:      debt.PlanID,
		EventType:   eventType,
		AggregateID: debt.ID,
		Payload:     string(body),
	}, nil
}

// ExpensePayment decodes the payload of an expense payment event
func (e *OutboxEvent) ExpensePayment() (ExpensePaymentPayload, error) {
	var payload ExpensePaymentPayload
	err := json.Unmarshal([]byte(e.Payload), &payload)
	return payload, err
}
