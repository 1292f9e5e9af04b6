// Package core holds the tracker's records (expenses and tasks), amount
// parsing and display, the running summary and category reports. It does
// no I/O.
package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Low    Priority = "Low"
	Medium Priority = "Medium"
	High   Priority = "High"
)

// DateLayout renders record timestamps in the session log.
const DateLayout = "Mon Jan 02 15:04:05 MST 2006"

type (
	// Priority is free text. Low, Medium and High are the conventional values
	// but any string is accepted.
	Priority string

	Expense struct {
		Title       string
		Description string
		Amount      float64
		Category    string
		CreatedAt   time.Time
	}

	Task struct {
		Title       string
		Description string
		Priority    Priority
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
)

// NewExpense builds an expense stamped with createdAt in UTC.
func NewExpense(title, description string, amount float64, category string, createdAt time.Time) Expense {
	return Expense{
		Title:       title,
		Description: description,
		Amount:      amount,
		Category:    category,
		CreatedAt:   createdAt.UTC(),
	}
}

// NewTask builds a task stamped with createdAt in UTC.
func NewTask(title, description string, priority Priority, createdAt time.Time) Task {
	return Task{
		Title:       title,
		Description: description,
		Priority:    priority,
		CreatedAt:   createdAt.UTC(),
	}
}

// Details returns the display form used by the session log.
func (e Expense) Details() string {
	return strings.Join([]string{
		e.Title,
		e.Description,
		"Rs. " + FormatAmount(e.Amount),
		e.Category,
		e.CreatedAt.Local().Format(DateLayout),
	}, " - ")
}

// Details returns the display form used by the session log.
func (t Task) Details() string {
	return strings.Join([]string{
		t.Title,
		t.Description,
		string(t.Priority),
		t.CreatedAt.Local().Format(DateLayout),
	}, " - ")
}

// IsConventional reports whether p is one of Low, Medium or High.
func (p Priority) IsConventional() bool {
	switch p {
	case Low, Medium, High:
		return true
	default:
		return false
	}
}

// ParsePriority matches the conventional values case-insensitively and keeps
// anything else verbatim. Blank input selects Low.
func ParsePriority(in string) Priority {
	in = strings.TrimSpace(in)
	if in == "" {
		return Low
	}
	for _, p := range []Priority{Low, Medium, High} {
		if strings.EqualFold(in, string(p)) {
			return p
		}
	}
	return Priority(in)
}

func (p Priority) String() string {
	return string(p)
}
