package google

import (
	"tracker/internal/core"
)

// exportDateLayout is recognised as a date by Sheets with USER_ENTERED input.
const exportDateLayout = "2006-01-02 15:04:05"

var header = []any{"Date", "Title", "Description", "Amount", "Category"}

// expenseRows converts expenses to a values matrix with a header row.
func expenseRows(expenses []core.Expense) [][]any {
	rows := make([][]any, 0, len(expenses)+1)
	rows = append(rows, header)
	for _, e := range expenses {
		rows = append(rows, []any{
			e.CreatedAt.Local().Format(exportDateLayout),
			e.Title,
			e.Description,
			e.Amount,
			e.Category,
		})
	}
	return rows
}
