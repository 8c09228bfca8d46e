package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", "todos").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count, "table todos not found")

	// Idempotent
	require.NoError(t, db.RunMigrations())
}

// TestTodosTableConstraints verifies the CHECK constraints on todos
func TestTodosTableConstraints(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	insert := `INSERT INTO todos (id, text, completed, priority, created_at, updated_at)
		VALUES (?, ?, 0, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`

	_, err := db.ExecContext(ctx, insert, "t1", "ok", "high")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "t2", "ok", "urgent")
	require.Error(t, err, "should fail with invalid priority")

	_, err = db.ExecContext(ctx, insert, "t3", "", "low")
	require.Error(t, err, "should fail with empty text")

	_, err = db.ExecContext(ctx, insert, "t1", "dup", "low")
	require.Error(t, err, "should fail with duplicate id")
}
