package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewExpenseStoresUTC(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	ts := time.Date(2025, 3, 12, 9, 30, 0, 0, loc)

	e := NewExpense("Coffee", "", 3.5, "Food", ts)

	assert.Equal(t, "Coffee", e.Title)
	assert.Equal(t, 3.5, e.Amount)
	assert.Equal(t, time.UTC, e.CreatedAt.Location())
	assert.True(t, e.CreatedAt.Equal(ts))
}

func TestExpenseDetails(t *testing.T) {
	ts := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)
	e := NewExpense("Coffee", "flat white", 3.5, "Food", ts)

	want := "Coffee - flat white - Rs. 3.5 - Food - " + ts.Local().Format(DateLayout)
	assert.Equal(t, want, e.Details())
}

func TestTaskDetails(t *testing.T) {
	ts := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)
	task := NewTask("Buy milk", "", Low, ts)

	want := "Buy milk -  - Low - " + ts.Local().Format(DateLayout)
	assert.Equal(t, want, task.Details())
}

func TestPriorityIsConventional(t *testing.T) {
	cases := []struct {
		p  Priority
		ok bool
	}{
		{Low, true},
		{Medium, true},
		{High, true},
		{"Urgent", false},
		{"low", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.p.IsConventional(), "priority %q", tc.p)
	}
}

func TestParsePriority(t *testing.T) {
	tests := map[string]Priority{
		"":         Low,
		"  ":       Low,
		"low":      Low,
		"MEDIUM":   Medium,
		" High ":   High,
		"someday":  Priority("someday"),
		"Critical": Priority("Critical"),
	}
	for in, want := range tests {
		assert.Equal(t, want, ParsePriority(in), in)
	}
}
