package memory

import (
	"context"
	"slices"
	"sync"

	"tracker/internal/core"
)

// Store is an in-process gateway. Nothing survives the process.
type Store struct {
	mu       sync.Mutex
	expenses []core.Expense
	tasks    []core.Task
	saves    int
}

func New() *Store {
	return &Store{}
}

// NewSeeded returns a store that loads the given sequences.
func NewSeeded(expenses []core.Expense, tasks []core.Task) *Store {
	return &Store{expenses: slices.Clone(expenses), tasks: slices.Clone(tasks)}
}

func (s *Store) LoadExpenses(ctx context.Context) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.expenses), nil
}

func (s *Store) LoadTasks(ctx context.Context) ([]core.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks), nil
}

func (s *Store) Save(ctx context.Context, expenses []core.Expense, tasks []core.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = slices.Clone(expenses)
	s.tasks = slices.Clone(tasks)
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *Store) Close() error { return nil }
