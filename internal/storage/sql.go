package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"tracker/internal/core"
	"tracker/internal/log"

	// database/sql drivers
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// insertBatch bounds the rows per INSERT to stay under SQLite's variable limit.
const insertBatch = 500

var (
	expenseColumns = []string{"position", "title", "description", "amount", "category", "created_unix", "created_nanos"}
	taskColumns    = []string{"position", "title", "description", "priority", "created_unix", "created_nanos"}
)

// SQLStore keeps the sequences in two tables ordered by position.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	psql    sq.StatementBuilderType
	logger  *log.Logger
}

// OpenSQLite opens (creating if needed) the SQLite database at path and
// applies migrations.
func OpenSQLite(path string, logger *log.Logger) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return openSQL(DialectSQLite, path, logger)
}

// OpenPostgres connects to dsn and applies migrations.
func OpenPostgres(dsn string, logger *log.Logger) (*SQLStore, error) {
	return openSQL(DialectPostgres, dsn, logger)
}

func openSQL(dialect Dialect, dsn string, logger *log.Logger) (*SQLStore, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.Nop()
	}

	return &SQLStore{
		db:      db,
		dialect: dialect,
		psql:    sq.StatementBuilder.PlaceholderFormat(placeholderFor(dialect)),
		logger:  logger.WithComponent(log.ComponentStorage),
	}, nil
}

func placeholderFor(dialect Dialect) sq.PlaceholderFormat {
	if dialect == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLStore) LoadExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.psql.Select(expenseColumns[1:]...).
		From("expenses").
		OrderBy("position").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e           core.Expense
			secs, nanos int64
		)
		if err := rows.Scan(&e.Title, &e.Description, &e.Amount, &e.Category, &secs, &nanos); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.CreatedAt = time.Unix(secs, nanos).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (s *SQLStore) LoadTasks(ctx context.Context) ([]core.Task, error) {
	rows, err := s.psql.Select(taskColumns[1:]...).
		From("tasks").
		OrderBy("position").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []core.Task
	for rows.Next() {
		var (
			t           core.Task
			priority    string
			secs, nanos int64
		)
		if err := rows.Scan(&t.Title, &t.Description, &priority, &secs, &nanos); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Priority = core.Priority(priority)
		t.CreatedAt = time.Unix(secs, nanos).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

// Save replaces both tables inside a single transaction.
func (s *SQLStore) Save(ctx context.Context, expenses []core.Expense, tasks []core.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Warn("Transaction rollback failed", zap.Error(rbErr))
		}
	}()

	for _, table := range []string{"expenses", "tasks"} {
		if _, err := s.psql.Delete(table).RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for start := 0; start < len(expenses); start += insertBatch {
		end := min(start+insertBatch, len(expenses))
		q := s.psql.Insert("expenses").Columns(expenseColumns...)
		for i, e := range expenses[start:end] {
			q = q.Values(start+i, e.Title, e.Description, e.Amount, e.Category,
				e.CreatedAt.Unix(), int64(e.CreatedAt.Nanosecond()))
		}
		if _, err := q.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert expenses: %w", err)
		}
	}

	for start := 0; start < len(tasks); start += insertBatch {
		end := min(start+insertBatch, len(tasks))
		q := s.psql.Insert("tasks").Columns(taskColumns...)
		for i, t := range tasks[start:end] {
			q = q.Values(start+i, t.Title, t.Description, string(t.Priority),
				t.CreatedAt.Unix(), int64(t.CreatedAt.Nanosecond()))
		}
		if _, err := q.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert tasks: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("Saved records",
		log.Operation(log.OpSave),
		zap.String(log.FieldBackend, string(s.dialect)),
		zap.Int("expenses", len(expenses)),
		zap.Int("tasks", len(tasks)))
	return nil
}
