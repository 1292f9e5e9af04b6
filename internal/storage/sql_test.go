package storage

import (
	"context"
	"path/filepath"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/core"
)

func newTestSQLite(t *testing.T) (*SQLStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "tracker.db")
	s, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSQLiteEmptyDatabase(t *testing.T) {
	s, _ := newTestSQLite(t)

	exp, err := s.LoadExpenses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, exp)

	tasks, err := s.LoadTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSQLiteRoundTripAndReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestSQLite(t)

	expenses, tasks := sampleRecords()
	require.NoError(t, s.Save(ctx, expenses, tasks))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	gotExp, err := reopened.LoadExpenses(ctx)
	require.NoError(t, err)
	assert.Equal(t, expenses, gotExp)

	gotTasks, err := reopened.LoadTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, tasks, gotTasks)
}

func TestSQLiteSaveReplacesContents(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSQLite(t)

	expenses, tasks := sampleRecords()
	require.NoError(t, s.Save(ctx, expenses, tasks))
	require.NoError(t, s.Save(ctx, expenses[1:], tasks[:1]))

	gotExp, err := s.LoadExpenses(ctx)
	require.NoError(t, err)
	assert.Equal(t, expenses[1:], gotExp)

	gotTasks, err := s.LoadTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, tasks[:1], gotTasks)
}

func TestSQLiteLargeSaveIsBatched(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSQLite(t)

	base, _ := sampleRecords()
	expenses := make([]core.Expense, 0, insertBatch*2+7)
	for i := 0; i < cap(expenses); i++ {
		e := base[i%len(base)]
		e.Amount = float64(i)
		expenses = append(expenses, e)
	}
	require.NoError(t, s.Save(ctx, expenses, nil))

	got, err := s.LoadExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(expenses))
	for i := range got {
		assert.Equal(t, float64(i), got[i].Amount)
	}
}

func TestPlaceholderFor(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{DialectSQLite, "INSERT INTO tasks (title,priority) VALUES (?,?)"},
		{DialectPostgres, "INSERT INTO tasks (title,priority) VALUES ($1,$2)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			query, args, err := sq.StatementBuilder.
				PlaceholderFormat(placeholderFor(tt.dialect)).
				Insert("tasks").Columns("title", "priority").Values("Buy milk", "High").
				ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
			assert.Len(t, args, 2)
		})
	}
}
