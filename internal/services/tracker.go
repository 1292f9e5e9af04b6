package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/storage"
)

const (
	eventQueueSize = 64
	publishTimeout = 5 * time.Second
)

// Publisher announces appended records. Failures never affect the append.
type Publisher interface {
	PublishExpenseAdded(ctx context.Context, e core.Expense) error
	PublishTaskAdded(ctx context.Context, t core.Task) error
}

// Tracker owns the expense and task sequences of a session. It only ever
// appends; reads return copies in insertion order.
type Tracker struct {
	mu       sync.RWMutex
	expenses []core.Expense
	tasks    []core.Task

	now    func() time.Time
	events Publisher
	logger *log.Logger

	queueMu    sync.Mutex
	queue      chan event
	queueDone  chan struct{}
	queueClose bool
	closeOnce  sync.Once
}

// event is one pending publish. Appends only enqueue; a single worker
// delivers events in order with a bounded context each.
type event struct {
	kind    string
	publish func(ctx context.Context) error
}

type Option func(*Tracker)

// WithClock replaces time.Now for record timestamps and report periods.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithPublisher sends an event for every appended record.
func WithPublisher(p Publisher) Option {
	return func(t *Tracker) { t.events = p }
}

func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l.WithComponent(log.ComponentTracker) }
}

// NewTracker returns an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		now:    time.Now,
		logger: log.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.events != nil {
		t.queue = make(chan event, eventQueueSize)
		t.queueDone = make(chan struct{})
		go t.deliver()
	}
	return t
}

func (t *Tracker) deliver() {
	defer close(t.queueDone)
	for ev := range t.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := ev.publish(ctx)
		cancel()
		if err != nil {
			publishFailures.WithLabelValues(ev.kind).Inc()
			t.logger.Warn("Failed to publish "+ev.kind+" event", log.Operation(log.OpPublish), zap.Error(err))
		}
	}
}

// enqueue never blocks. Events are dropped when the queue is full or the
// tracker is closed.
func (t *Tracker) enqueue(ev event) {
	if t.queue == nil {
		return
	}
	t.queueMu.Lock()
	defer t.queueMu.Unlock()
	if t.queueClose {
		return
	}
	select {
	case t.queue <- ev:
	default:
		publishFailures.WithLabelValues(ev.kind).Inc()
		t.logger.Warn("Event queue full, dropping "+ev.kind+" event", log.Operation(log.OpPublish))
	}
}

// Close stops accepting events and waits for queued ones to be delivered
// until ctx is done. Appends keep working after Close; they are just not
// published.
func (t *Tracker) Close(ctx context.Context) error {
	if t.queue == nil {
		return nil
	}
	t.closeOnce.Do(func() {
		t.queueMu.Lock()
		t.queueClose = true
		close(t.queue)
		t.queueMu.Unlock()
	})
	select {
	case <-t.queueDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load builds a tracker from whatever gw holds. Missing data starts an empty
// sequence; unreadable data is logged and also starts empty.
func Load(ctx context.Context, gw storage.Gateway, opts ...Option) *Tracker {
	t := NewTracker(opts...)

	expenses, err := gw.LoadExpenses(ctx)
	switch {
	case err != nil:
		loadFailures.WithLabelValues("expense").Inc()
		t.logger.Warn("Could not read saved expenses. Starting fresh.",
			log.Operation(log.OpLoad), zap.Error(err))
	case len(expenses) == 0:
		t.logger.Info("No saved expenses found. Starting fresh.", log.Operation(log.OpLoad))
	default:
		t.expenses = expenses
	}

	tasks, err := gw.LoadTasks(ctx)
	switch {
	case err != nil:
		loadFailures.WithLabelValues("task").Inc()
		t.logger.Warn("Could not read saved tasks. Starting fresh.",
			log.Operation(log.OpLoad), zap.Error(err))
	case len(tasks) == 0:
		t.logger.Info("No saved tasks found. Starting fresh.", log.Operation(log.OpLoad))
	default:
		t.tasks = tasks
	}

	t.logger.Info("Session loaded",
		log.Operation(log.OpLoad),
		zap.Int("expenses", len(t.expenses)),
		zap.Int("tasks", len(t.tasks)))
	return t
}

// AddExpense parses amount and appends a new expense stamped with the
// current time. An unparsable amount returns core.ErrInvalidAmount and
// leaves the tracker unchanged.
func (t *Tracker) AddExpense(title, description, amount, category string) (core.Expense, error) {
	value, err := core.ParseAmount(amount)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.NewExpense(title, description, value, category, t.now())

	t.mu.Lock()
	t.expenses = append(t.expenses, e)
	t.mu.Unlock()

	recordsAdded.WithLabelValues("expense").Inc()
	t.logger.Debug("Added Expense: "+e.Details(),
		append(log.Expense(e.Title, e.Amount, e.Category), log.Operation(log.OpAppend))...)

	t.enqueue(event{kind: "expense", publish: func(ctx context.Context) error {
		return t.events.PublishExpenseAdded(ctx, e)
	}})
	return e, nil
}

// AddTask appends a new task stamped with the current time.
func (t *Tracker) AddTask(title, description string, priority core.Priority) core.Task {
	task := core.NewTask(title, description, priority, t.now())

	t.mu.Lock()
	t.tasks = append(t.tasks, task)
	t.mu.Unlock()

	recordsAdded.WithLabelValues("task").Inc()
	t.logger.Debug("Added Task: "+task.Details(),
		append(log.Task(task.Title, string(task.Priority)), log.Operation(log.OpAppend))...)

	t.enqueue(event{kind: "task", publish: func(ctx context.Context) error {
		return t.events.PublishTaskAdded(ctx, task)
	}})
	return task
}

func (t *Tracker) Summarize() core.Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return core.Summarize(t.expenses, t.tasks)
}

// Report groups expenses since the start of period by category.
func (t *Tracker) Report(period string) (core.Report, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return core.BuildReport(t.expenses, period, t.now())
}

func (t *Tracker) Expenses() []core.Expense {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.expenses)
}

func (t *Tracker) Tasks() []core.Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.tasks)
}

// Snapshot copies both sequences under a single lock.
func (t *Tracker) Snapshot() ([]core.Expense, []core.Task) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.expenses), slices.Clone(t.tasks)
}
