package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/core"
	"tracker/internal/services"
)

var at = time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC)

func newSession(t *testing.T, input string, opts ...Option) (*Session, *services.Tracker, *bytes.Buffer) {
	t.Helper()
	tr := services.NewTracker(services.WithClock(func() time.Time { return at }))
	out := &bytes.Buffer{}
	return New(tr, strings.NewReader(input), out, opts...), tr, out
}

type fakeExporter struct {
	got []core.Expense
	err error
}

func (f *fakeExporter) ExportExpenses(_ context.Context, expenses []core.Expense) (int, error) {
	f.got = expenses
	return len(expenses), f.err
}

func TestAddExpenseForm(t *testing.T) {
	s, tr, out := newSession(t, "expense\nCoffee\nMorning\n3.50\nFood\nquit\n")

	require.NoError(t, s.Run(context.Background()))

	expenses := tr.Expenses()
	require.Len(t, expenses, 1)
	assert.Equal(t, core.NewExpense("Coffee", "Morning", 3.5, "Food", at), expenses[0])

	text := out.String()
	assert.Contains(t, text, "Title: ")
	assert.Contains(t, text, "Description: ")
	assert.Contains(t, text, "Amount: ")
	assert.Contains(t, text, "Category: ")
	assert.Contains(t, text, "Added Expense: "+expenses[0].Details())
	assert.Contains(t, text, "Total Expenses: $3.5 | Expenses: 1 | Tasks: 0")
}

func TestInvalidAmountRepromptsOnlyAmount(t *testing.T) {
	s, tr, out := newSession(t, "expense\nCoffee\n\nabc\n\n4\nFood\nquit\n")

	require.NoError(t, s.Run(context.Background()))

	expenses := tr.Expenses()
	require.Len(t, expenses, 1)
	assert.Equal(t, "Coffee", expenses[0].Title)
	assert.Equal(t, 4.0, expenses[0].Amount)
	assert.Equal(t, "Food", expenses[0].Category)

	text := out.String()
	assert.Equal(t, 2, strings.Count(text, msgInvalidAmount))
	assert.Equal(t, 1, strings.Count(text, "Title: "))
	assert.Equal(t, 3, strings.Count(text, "Amount: "))
}

func TestAddTaskForm(t *testing.T) {
	s, tr, out := newSession(t, "task\nBuy milk\n\nhigh\ntask\nNap\n\n\ntask\nCall\n\nurgent\n")

	require.NoError(t, s.Run(context.Background()))

	tasks := tr.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, core.High, tasks[0].Priority)
	assert.Equal(t, core.Low, tasks[1].Priority)
	assert.Equal(t, core.Priority("urgent"), tasks[2].Priority)
	assert.Contains(t, out.String(), "Priority (Low/Medium/High): ")
	assert.Contains(t, out.String(), "Added Task: "+tasks[0].Details())
}

func TestEOFBehavesLikeQuit(t *testing.T) {
	s, tr, _ := newSession(t, "expense\nCoffee\n")

	require.NoError(t, s.Run(context.Background()))
	assert.Empty(t, tr.Expenses(), "an unfinished form adds nothing")
}

func TestSummaryAndList(t *testing.T) {
	s, tr, out := newSession(t, "summary\nlist\nlist tasks\nlist bogus\n")
	_, err := tr.AddExpense("Coffee", "", "3", "Food")
	require.NoError(t, err)
	tr.AddTask("Buy milk", "", core.High)

	require.NoError(t, s.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Total Expenses: $3.0 | Expenses: 1 | Tasks: 1")
	assert.Contains(t, text, "Expenses (1):")
	assert.Equal(t, 2, strings.Count(text, "Tasks (1):"))
	assert.Contains(t, text, "1. "+tr.Tasks()[0].Details())
	assert.Contains(t, text, "Use 'list expenses' or 'list tasks'.")
}

func TestReport(t *testing.T) {
	s, tr, out := newSession(t, "report\nreport month\nreport decade\n")
	for _, in := range [][2]string{{"3", "Food"}, {"10", "Books"}, {"2", "Food"}, {"1", ""}} {
		_, err := tr.AddExpense("x", "", in[0], in[1])
		require.NoError(t, err)
	}

	require.NoError(t, s.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Spending by category (all time):")
	assert.Contains(t, text, "Spending by category since ")
	assert.Contains(t, text, "  Books: 10.0\n  Food: 5.0\n  (uncategorised): 1.0\n")
	assert.Contains(t, text, "Total: 16.0")
	assert.Contains(t, text, `Unknown period "decade". Use one of: all, week, month, year.`)
}

func TestExport(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s, _, out := newSession(t, "export\n")
		require.NoError(t, s.Run(context.Background()))
		assert.Contains(t, out.String(), msgNoExporter)
	})

	t.Run("exports current expenses", func(t *testing.T) {
		exp := &fakeExporter{}
		s, tr, out := newSession(t, "export\n", WithExporter(exp))
		_, err := tr.AddExpense("Coffee", "", "3", "Food")
		require.NoError(t, err)

		require.NoError(t, s.Run(context.Background()))
		assert.Equal(t, tr.Expenses(), exp.got)
		assert.Contains(t, out.String(), "Exported 1 expenses.")
	})

	t.Run("reports failure", func(t *testing.T) {
		exp := &fakeExporter{err: errors.New("denied")}
		s, _, out := newSession(t, "export\n", WithExporter(exp))
		require.NoError(t, s.Run(context.Background()))
		assert.Contains(t, out.String(), "Export failed: denied")
	})
}

func TestUnknownCommandAndHelp(t *testing.T) {
	s, _, out := newSession(t, "dance\nhelp\n")
	require.NoError(t, s.Run(context.Background()))
	assert.Contains(t, out.String(), "Unknown command: dance.")
	assert.Contains(t, out.String(), "report [all|week|month|year]")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	s, _, _ := newSession(t, "summary\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
}
