package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tracker/internal/codec"
	"tracker/internal/core"
	"tracker/internal/log"
)

// File names used by FileStore inside its data directory.
const (
	ExpensesFile = "expenses.dat"
	TasksFile    = "tasks.dat"

	corruptSuffix = ".corrupt"
)

// FileStore keeps each sequence in its own codec-encoded file.
type FileStore struct {
	dir    string
	logger *log.Logger
}

func NewFileStore(dir string, logger *log.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &FileStore{dir: dir, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

// Dir returns the data directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) LoadExpenses(ctx context.Context) ([]core.Expense, error) {
	raw, err := s.read(ctx, ExpensesFile)
	if err != nil || raw == nil {
		return nil, err
	}
	out, err := codec.DecodeExpenses(raw)
	if err != nil {
		return nil, s.quarantine(ExpensesFile, err)
	}
	return out, nil
}

func (s *FileStore) LoadTasks(ctx context.Context) ([]core.Task, error) {
	raw, err := s.read(ctx, TasksFile)
	if err != nil || raw == nil {
		return nil, err
	}
	out, err := codec.DecodeTasks(raw)
	if err != nil {
		return nil, s.quarantine(TasksFile, err)
	}
	return out, nil
}

// Save writes both files concurrently. Each write is attempted regardless of
// the other's outcome.
func (s *FileStore) Save(ctx context.Context, expenses []core.Expense, tasks []core.Task) error {
	expRaw := codec.EncodeExpenses(expenses)
	taskRaw := codec.EncodeTasks(tasks)

	// A plain Group, not WithContext: one failed write must not cancel the other.
	var g errgroup.Group
	errs := make([]error, 2)
	for i, f := range []struct {
		name string
		data []byte
	}{{ExpensesFile, expRaw}, {TasksFile, taskRaw}} {
		i, f := i, f
		g.Go(func() error {
			errs[i] = s.write(ctx, f.name, f.data)
			return errs[i]
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Join(errs...)
	}

	s.logger.Debug("Saved records",
		log.Operation(log.OpSave),
		zap.Int("expenses", len(expenses)),
		zap.Int("tasks", len(tasks)))
	return nil
}

func (s *FileStore) Close() error { return nil }

// read returns nil, nil when the file does not exist.
func (s *FileStore) read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return raw, nil
}

// write replaces name atomically through a temp file in the same directory.
func (s *FileStore) write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// quarantine moves an unreadable file aside so the next save cannot destroy
// it, and returns the decode error annotated with the file name.
func (s *FileStore) quarantine(name string, cause error) error {
	src := filepath.Join(s.dir, name)
	dst := src + corruptSuffix
	if err := os.Rename(src, dst); err != nil {
		s.logger.Error("Failed to move unreadable file aside",
			zap.String(log.FieldFile, src),
			zap.Error(err))
	} else {
		s.logger.Warn("Moved unreadable file aside",
			zap.String(log.FieldFile, dst),
			zap.Error(cause))
	}
	return fmt.Errorf("load %s: %w", name, cause)
}
