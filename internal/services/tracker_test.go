package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/storage"
	"tracker/internal/storage/memory"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

type recordingPublisher struct {
	mu       sync.Mutex
	expenses []core.Expense
	tasks    []core.Task
	err      error
	// block, when set, holds every publish until it is closed or ctx ends.
	block    chan struct{}
}

func (p *recordingPublisher) wait(ctx context.Context) error {
	if p.block == nil {
		return nil
	}
	select {
	case <-p.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *recordingPublisher) PublishExpenseAdded(ctx context.Context, e core.Expense) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expenses = append(p.expenses, e)
	return p.err
}

func (p *recordingPublisher) PublishTaskAdded(ctx context.Context, t core.Task) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, t)
	return p.err
}

type failingGateway struct {
	*memory.Store
	err error
}

func (g *failingGateway) LoadExpenses(context.Context) ([]core.Expense, error) { return nil, g.err }

func TestAddExpense(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tr := NewTracker(WithClock(fixedClock(at)))

	e, err := tr.AddExpense("Coffee", "Morning", " 3.5 ", "Food")
	require.NoError(t, err)
	assert.Equal(t, core.NewExpense("Coffee", "Morning", 3.5, "Food", at), e)
	assert.Equal(t, []core.Expense{e}, tr.Expenses())
}

func TestAddExpenseInvalidAmountLeavesStateUnchanged(t *testing.T) {
	tr := NewTracker()
	_, err := tr.AddExpense("Coffee", "", "3.5", "")
	require.NoError(t, err)

	for _, bad := range []string{"abc", "", "  ", "NaN", "Inf", "3,50"} {
		_, err := tr.AddExpense("Tea", "", bad, "")
		assert.ErrorIs(t, err, core.ErrInvalidAmount, bad)
	}
	assert.Len(t, tr.Expenses(), 1)
	assert.Equal(t, 1, tr.Summarize().ExpenseCount)
}

func TestAddTaskAcceptsAnyPriority(t *testing.T) {
	tr := NewTracker()
	tr.AddTask("Buy milk", "", core.High)
	tr.AddTask("Water plants", "", core.Priority("someday"))

	tasks := tr.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, core.Priority("someday"), tasks[1].Priority)
}

func TestSummarize(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, core.Summary{}, tr.Summarize())

	for _, a := range []string{"10", "2.5", "-1"} {
		_, err := tr.AddExpense("x", "", a, "")
		require.NoError(t, err)
	}
	tr.AddTask("t", "", core.Low)

	s := tr.Summarize()
	assert.InDelta(t, 11.5, s.TotalSpent, 1e-9)
	assert.Equal(t, 3, s.ExpenseCount)
	assert.Equal(t, 1, s.TaskCount)
}

func TestReadsReturnCopies(t *testing.T) {
	tr := NewTracker()
	_, err := tr.AddExpense("Coffee", "", "3", "")
	require.NoError(t, err)
	tr.AddTask("Buy milk", "", core.High)

	exp := tr.Expenses()
	exp[0].Title = "mutated"
	tasks := tr.Tasks()
	tasks[0].Title = "mutated"

	assert.Equal(t, "Coffee", tr.Expenses()[0].Title)
	assert.Equal(t, "Buy milk", tr.Tasks()[0].Title)
}

func TestReportUsesClock(t *testing.T) {
	ref := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	clock := ref.AddDate(0, -2, 0)
	tr := NewTracker(WithClock(func() time.Time { return clock }))

	_, err := tr.AddExpense("Old", "", "100", "Rent")
	require.NoError(t, err)
	clock = ref
	_, err = tr.AddExpense("Coffee", "", "3", "Food")
	require.NoError(t, err)

	all, err := tr.Report(core.PeriodAll)
	require.NoError(t, err)
	assert.InDelta(t, 103, all.Total, 1e-9)

	month, err := tr.Report(core.PeriodMonth)
	require.NoError(t, err)
	assert.InDelta(t, 3, month.Total, 1e-9)
	require.Len(t, month.ByCategory, 1)
	assert.Equal(t, "Food", month.ByCategory[0].Name)

	_, err = tr.Report("decade")
	assert.ErrorIs(t, err, core.ErrUnknownPeriod)
}

func TestPublisherReceivesEventsAndFailuresAreIgnored(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	tr := NewTracker(WithPublisher(pub))

	_, err := tr.AddExpense("Coffee", "", "3", "")
	require.NoError(t, err)
	tr.AddTask("Buy milk", "", core.High)
	require.NoError(t, tr.Close(context.Background()))

	assert.Len(t, pub.expenses, 1)
	assert.Len(t, pub.tasks, 1)
	assert.Len(t, tr.Expenses(), 1)
	assert.Len(t, tr.Tasks(), 1)
}

func TestAppendDoesNotWaitForPublisher(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{}), err: errors.New("broker down")}
	tr := NewTracker(WithPublisher(pub))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := tr.AddExpense("Coffee", "", "3", "")
		require.NoError(t, err)
		tr.AddTask("Buy milk", "", core.High)
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 3, tr.Summarize().ExpenseCount)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tr.Close(ctx), context.DeadlineExceeded)

	close(pub.block)
	require.NoError(t, tr.Close(context.Background()))
	assert.Len(t, pub.expenses, 3)
	assert.Len(t, pub.tasks, 3)
}

func TestFullEventQueueDropsInsteadOfBlocking(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	tr := NewTracker(WithPublisher(pub))

	total := eventQueueSize + 10
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			tr.AddTask("t", "", core.Low)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("appends blocked on a full event queue")
	}

	close(pub.block)
	require.NoError(t, tr.Close(context.Background()))
	assert.Len(t, tr.Tasks(), total)
	assert.Less(t, len(pub.tasks), total)
}

func TestAppendAfterCloseIsNotPublished(t *testing.T) {
	pub := &recordingPublisher{}
	tr := NewTracker(WithPublisher(pub))
	require.NoError(t, tr.Close(context.Background()))
	require.NoError(t, tr.Close(context.Background()))

	tr.AddTask("Buy milk", "", core.High)
	assert.Len(t, tr.Tasks(), 1)
	assert.Empty(t, pub.tasks)
}

func TestCloseWithoutPublisher(t *testing.T) {
	assert.NoError(t, NewTracker().Close(context.Background()))
}

func TestInvalidExpenseIsNotPublished(t *testing.T) {
	pub := &recordingPublisher{}
	tr := NewTracker(WithPublisher(pub))

	_, err := tr.AddExpense("Coffee", "", "three", "")
	assert.Error(t, err)
	require.NoError(t, tr.Close(context.Background()))
	assert.Empty(t, pub.expenses)
}

func TestConcurrentAppends(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = tr.AddExpense("x", "", "1", "")
		}()
		go func() {
			defer wg.Done()
			tr.AddTask("t", "", core.Low)
		}()
	}
	wg.Wait()

	s := tr.Summarize()
	assert.Equal(t, 50, s.ExpenseCount)
	assert.Equal(t, 50, s.TaskCount)
	assert.InDelta(t, 50, s.TotalSpent, 1e-9)
}

func TestAddLogsSessionLineAtDebug(t *testing.T) {
	zc, logs := observer.New(zapcore.DebugLevel)
	tr := NewTracker(WithLogger(log.Wrap(zap.New(zc), log.ComponentApp)))

	e, err := tr.AddExpense("Coffee", "", "3.5", "Food")
	require.NoError(t, err)

	entries := logs.FilterMessage("Added Expense: " + e.Details()).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, log.ComponentTracker, entries[0].ContextMap()[log.FieldComponent])
	assert.Equal(t, "expense", entries[0].ContextMap()[log.FieldKind])
}

func TestLoadEmptyGatewayStartsFresh(t *testing.T) {
	zc, logs := observer.New(zapcore.InfoLevel)
	tr := Load(context.Background(), memory.New(), WithLogger(log.Wrap(zap.New(zc), log.ComponentApp)))

	assert.Empty(t, tr.Expenses())
	assert.Empty(t, tr.Tasks())
	assert.Equal(t, 1, logs.FilterMessage("No saved expenses found. Starting fresh.").Len())
	assert.Equal(t, 1, logs.FilterMessage("No saved tasks found. Starting fresh.").Len())
}

func TestLoadFailureIsLoggedAndStartsFresh(t *testing.T) {
	zc, logs := observer.New(zapcore.InfoLevel)
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	gw := &failingGateway{
		Store: memory.NewSeeded(nil, []core.Task{core.NewTask("Buy milk", "", core.High, at)}),
		err:   errors.New("corrupt record data"),
	}

	tr := Load(context.Background(), gw, WithLogger(log.Wrap(zap.New(zc), log.ComponentApp)))

	assert.Empty(t, tr.Expenses())
	assert.Len(t, tr.Tasks(), 1)
	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "Could not read saved expenses. Starting fresh.", warnings[0].Message)
}

func TestCoffeeAndBuyMilkSurviveRelaunch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	gw, err := storage.NewFileStore(dir, nil)
	require.NoError(t, err)

	first := Load(ctx, gw, WithClock(fixedClock(at)))
	_, err = first.AddExpense("Coffee", "", "3.50", "Food")
	require.NoError(t, err)
	first.AddTask("Buy milk", "", core.High)

	expenses, tasks := first.Snapshot()
	require.NoError(t, gw.Save(ctx, expenses, tasks))

	second := Load(ctx, gw)
	s := second.Summarize()
	assert.Equal(t, 1, s.ExpenseCount)
	assert.Equal(t, 1, s.TaskCount)
	assert.Equal(t, 3.5, s.TotalSpent)
	assert.Equal(t, "Total Expenses: $3.5 | Expenses: 1 | Tasks: 1", s.String())
	assert.True(t, at.Equal(second.Expenses()[0].CreatedAt))
	assert.True(t, at.Equal(second.Tasks()[0].CreatedAt))
}

func TestCorruptFileDoesNotStopRelaunch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.ExpensesFile), []byte("garbage"), 0o644))

	gw, err := storage.NewFileStore(dir, nil)
	require.NoError(t, err)

	tr := Load(ctx, gw)
	assert.Empty(t, tr.Expenses())

	_, err = tr.AddExpense("Coffee", "", "3", "")
	require.NoError(t, err)
	expenses, tasks := tr.Snapshot()
	require.NoError(t, gw.Save(ctx, expenses, tasks))
	assert.FileExists(t, filepath.Join(dir, storage.ExpensesFile+".corrupt"))
}
