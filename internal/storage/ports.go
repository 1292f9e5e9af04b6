package storage

import (
	"context"

	"tracker/internal/core"
)

// Gateway persists the two record sequences of a session.
//
// Load methods return an empty sequence and a nil error when nothing has been
// saved yet. Unreadable or incompatible data yields an empty sequence together
// with a non-nil error so callers can decide whether to continue.
type Gateway interface {
	LoadExpenses(ctx context.Context) ([]core.Expense, error)
	LoadTasks(ctx context.Context) ([]core.Task, error)
	// Save replaces everything previously stored with the given sequences.
	Save(ctx context.Context, expenses []core.Expense, tasks []core.Task) error
	Close() error
}
