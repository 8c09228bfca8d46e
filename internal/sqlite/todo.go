package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ganot/livetodo/internal/domain/todo"
	"github.com/ganot/livetodo/internal/repository"
)

const todoColumns = `id, text, completed, priority, created_at, updated_at`

// TodoRepository implements todo.Repository for SQLite
type TodoRepository struct {
	db *DB
}

// NewTodoRepository creates a new TodoRepository
func NewTodoRepository(db *DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create inserts a new item
func (r *TodoRepository) Create(ctx context.Context, item *todo.Item) error {
	query := `
		INSERT INTO todos (id, text, completed, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Text,
		item.Completed,
		item.Priority,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create todo: %w", err)
	}

	return nil
}

// Get retrieves an item by ID
func (r *TodoRepository) Get(ctx context.Context, id string) (*todo.Item, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = ?`

	item, err := scanTodo(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	return item, nil
}

// Update overwrites the mutable fields of an item
func (r *TodoRepository) Update(ctx context.Context, item *todo.Item) error {
	query := `
		UPDATE todos
		SET text = ?, completed = ?, priority = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		item.Text,
		item.Completed,
		item.Priority,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}

	return requireAffected(result)
}

// Delete removes an item
func (r *TodoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	return requireAffected(result)
}

// List returns items matching opts, newest first
func (r *TodoRepository) List(ctx context.Context, opts todo.ListOptions) ([]todo.Item, error) {
	query := `SELECT ` + todoColumns + ` FROM todos`
	args := []interface{}{}
	if opts.Completed != nil {
		query += ` WHERE completed = ?`
		args = append(args, *opts.Completed)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	return queryTodos(ctx, r.db, query, args...)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryTodos(ctx context.Context, q queryer, query string, args ...any) ([]todo.Item, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	items := []todo.Item{}
	for rows.Next() {
		item, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		items = append(items, *item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todo rows: %w", err)
	}

	return items, nil
}

// DeleteCompleted removes every completed item and returns how many were removed
func (r *TodoRepository) DeleteCompleted(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE completed = ?`, true)
	if err != nil {
		return 0, fmt.Errorf("failed to delete completed todos: %w", err)
	}
	return result.RowsAffected()
}

// DeleteAll removes every item
func (r *TodoRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todos`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete todos: %w", err)
	}
	return result.RowsAffected()
}

// ToggleAll completes every item, or reopens them all when none is active,
// and returns every item newest first. The decision, the update and the
// re-read share one transaction.
func (r *TodoRepository) ToggleAll(ctx context.Context, updatedAt time.Time) ([]todo.Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var active int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos WHERE completed = ?`, false).Scan(&active); err != nil {
		return nil, fmt.Errorf("failed to count active todos: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE todos SET completed = ?, updated_at = ?`,
		active > 0, updatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to toggle todos: %w", err)
	}

	items, err := queryTodos(ctx, tx,
		`SELECT `+todoColumns+` FROM todos ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return items, nil
}

// Count returns the number of items, optionally restricted to one completion state
func (r *TodoRepository) Count(ctx context.Context, completed *bool) (int, error) {
	query := `SELECT COUNT(*) FROM todos`
	args := []interface{}{}
	if completed != nil {
		query += ` WHERE completed = ?`
		args = append(args, *completed)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*todo.Item, error) {
	var item todo.Item
	err := row.Scan(
		&item.ID,
		&item.Text,
		&item.Completed,
		&item.Priority,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
