package sheets

import (
	"context"

	"tracker/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseExporter replaces the remote copy of the expense list.
	ExpenseExporter interface {
		ExportExpenses(ctx context.Context, expenses []core.Expense) (rows int, err error)
	}
)
