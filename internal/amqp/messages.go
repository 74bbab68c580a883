package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventAlertCreated  EventType = "budget.alert.created"
	EventDigestCreated EventType = "budget.digest.created"
)

// BudgetEventMessage announces a record written by the scheduler. It carries
// only identifiers; consumers load the record itself from the database.
type BudgetEventMessage struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetEventMessage(typ EventType, id, userID string) *BudgetEventMessage {
	return &BudgetEventMessage{
		Type:      typ,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *BudgetEventMessage) Validate() error {
	switch m.Type {
	case EventAlertCreated, EventDigestCreated:
	default:
		return fmt.Errorf("unknown event type %q", m.Type)
	}
	if m.ID == "" {
		return fmt.Errorf("event %s has no id", m.Type)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *BudgetEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetEventMessageFromJSON decodes and validates a message body.
func BudgetEventMessageFromJSON(data []byte) (*BudgetEventMessage, error) {
	var msg BudgetEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
