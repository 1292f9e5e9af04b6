// Package shutdown persists the session once on exit and bounds how long
// the process waits for it.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/storage"
)

// DefaultTimeout is used when NewGuard receives a non-positive timeout.
const DefaultTimeout = 5 * time.Second

// ErrSaveTimeout means the save was still running when the wait ended.
// Records appended since the last successful save may be lost.
var ErrSaveTimeout = errors.New("save did not finish before timeout")

// Source supplies a consistent copy of both sequences.
type Source interface {
	Snapshot() ([]core.Expense, []core.Task)
}

type Guard struct {
	source  Source
	gateway storage.Gateway
	timeout time.Duration
	logger  *log.Logger

	once sync.Once
	err  error
}

func NewGuard(source Source, gateway storage.Gateway, timeout time.Duration, logger *log.Logger) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Guard{
		source:  source,
		gateway: gateway,
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentShutdown),
	}
}

// Save runs the gateway save on a worker goroutine and waits for it up to the
// guard's timeout. Only the first call saves; later calls return its result.
func (g *Guard) Save(ctx context.Context) error {
	g.once.Do(func() {
		g.err = g.save(ctx)
	})
	return g.err
}

func (g *Guard) save(ctx context.Context) error {
	expenses, tasks := g.source.Snapshot()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- g.gateway.Save(ctx, expenses, tasks)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = ErrSaveTimeout
	}

	elapsed := time.Since(start)
	observeSave(elapsed, err)

	switch {
	case err == nil:
		g.logger.Info("Session saved",
			log.Operation(log.OpShutdown),
			zap.Int("expenses", len(expenses)),
			zap.Int("tasks", len(tasks)),
			zap.Duration(log.FieldDuration, elapsed))
		return nil
	case errors.Is(err, ErrSaveTimeout):
		g.logger.Error("Save did not finish in time, unsaved records may be lost",
			log.Operation(log.OpShutdown),
			zap.Duration("timeout", g.timeout))
		return err
	default:
		g.logger.Error("Failed to save session",
			log.Operation(log.OpShutdown),
			zap.Error(err))
		return fmt.Errorf("save session: %w", err)
	}
}
