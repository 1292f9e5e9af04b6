package amqp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/core"
)

func TestRecordAddedMessageJSON(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	msg := NewExpenseAddedMessage(core.NewExpense("Coffee", "Morning", 0, "Food", at))

	data, err := msg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"amount":0`, "zero amounts are still sent for expenses")
	assert.Contains(t, string(data), `"kind":"expense"`)
	assert.NotContains(t, string(data), `"priority"`)

	back, err := RecordAddedMessageFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, msg.Title, back.Title)
	assert.Equal(t, msg.Category, back.Category)
}

func TestRecordAddedMessageFromJSONRejectsGarbage(t *testing.T) {
	_, err := RecordAddedMessageFromJSON([]byte("{not json"))
	assert.Error(t, err)
}
