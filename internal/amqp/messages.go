package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/sjperalta/debt-ledger/internal/models"
)

// LedgerEventMessage is the wire form of an outbox event. The payload is
// carried verbatim so consumers decode it with the same model helpers.
type LedgerEventMessage struct {
	EventID     string          `json:"event_id"`
	PlanID      string          `json:"plan_id"`
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	Timestamp   time.Time       `json:"timestamp"`
}

// NewLedgerEventMessage wraps an outbox event for publishing
func NewLedgerEventMessage(event models.OutboxEvent) *LedgerEventMessage {
	return &LedgerEventMessage{
		EventID:     event.ID,
		PlanID:      event.PlanID,
		EventType:   event.EventType,
		AggregateID: event.AggregateID,
		Payload:     json.RawMessage(event.Payload),
		CreatedAt:   event.CreatedAt,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// OutboxEvent converts the message back into the event it was built from
func (m *LedgerEventMessage) OutboxEvent() models.OutboxEvent {
	return models.OutboxEvent{
		ID:          m.EventID,
		PlanID:      m.PlanID,
		EventType:   m.EventType,
		AggregateID: m.AggregateID,
		Payload:     string(m.Payload),
		CreatedAt:   m.CreatedAt,
	}
}

// LedgerEventMessageFromJSON decodes and sanity-checks a message body
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EventID == "" || msg.EventType == "" {
		return nil, errors.New("ledger event message is missing event_id or event_type")
	}
	return &msg, nil
}
