// Package sqlite persists the task list in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"chatdo/internal/task"
)

//go:embed schema.sql
var schema string

// Repository implements task.Repository on a SQLite table.
type Repository struct {
	DB *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repository{DB: db}
	if err := r.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

func (r *Repository) init(ctx context.Context) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		schema,
	}
	for _, q := range stmts {
		if _, err := r.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init sqlite: %w", err)
		}
	}
	return nil
}

// Load reads all tasks in collection order.
func (r *Repository) Load(ctx context.Context) ([]task.Task, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT id, text, completed, created_at, due_date, priority, notes
FROM tasks
ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		var (
			t         task.Task
			createdAt string
			dueDate   sql.NullString
			priority  sql.NullString
			notes     sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed, &createdAt, &dueDate, &priority, &notes); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("task %s: bad created_at: %w", t.ID, err)
		}
		if dueDate.Valid {
			d, err := time.Parse(time.RFC3339Nano, dueDate.String)
			if err != nil {
				return nil, fmt.Errorf("task %s: bad due_date: %w", t.ID, err)
			}
			t.DueDate = &d
		}
		t.Priority = task.Priority(priority.String)
		t.Notes = notes.String
		tasks = append(tasks, task.Normalize(t))
	}
	return tasks, rows.Err()
}

// Save replaces all rows with tasks in a single transaction.
func (r *Repository) Save(ctx context.Context, tasks []task.Task) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO tasks (id, position, text, completed, created_at, due_date, priority, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range tasks {
		var due, priority, notes any
		if t.DueDate != nil {
			due = t.DueDate.UTC().Format(time.RFC3339Nano)
		}
		if t.Priority != task.PriorityNone {
			priority = string(t.Priority)
		}
		if t.Notes != "" {
			notes = t.Notes
		}
		if _, err = stmt.ExecContext(ctx, t.ID, i, t.Text, t.Completed,
			t.CreatedAt.UTC().Format(time.RFC3339Nano), due, priority, notes); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}
