package amqp

import (
	"encoding/json"
	"time"

	"tracker/internal/core"
)

// RoutingKey is used for every record-added event.
const RoutingKey = "record.added"

// RecordAddedMessage announces that a record was appended to the session.
// Amount is set for expenses, Priority for tasks.
type RecordAddedMessage struct {
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Amount      *float64  `json:"amount,omitempty"`
	Category    string    `json:"category,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseAddedMessage describes an appended expense.
func NewExpenseAddedMessage(e core.Expense) *RecordAddedMessage {
	amount := e.Amount
	return &RecordAddedMessage{
		Kind:        "expense",
		Title:       e.Title,
		Description: e.Description,
		Amount:      &amount,
		Category:    e.Category,
		CreatedAt:   e.CreatedAt,
		Timestamp:   time.Now(),
	}
}

// NewTaskAddedMessage describes an appended task.
func NewTaskAddedMessage(t core.Task) *RecordAddedMessage {
	return &RecordAddedMessage{
		Kind:        "task",
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		CreatedAt:   t.CreatedAt,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordAddedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordAddedMessageFromJSON creates a message from JSON bytes
func RecordAddedMessageFromJSON(data []byte) (*RecordAddedMessage, error) {
	var msg RecordAddedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
