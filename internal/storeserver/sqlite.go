package storeserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/LevdanskyVitaliy/todo-sync/internal/remote"
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

// SQLiteBackend stores tasks in a SQLite file
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at dbPath
func OpenSQLite(dbPath string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// migrate creates the todos table
func (b *SQLiteBackend) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS todos (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			done INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_todos_done ON todos(done);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Close closes the database connection
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// columns maps filter keys to SQL columns
var columns = map[string]string{
	"id":          "id",
	"name":        "name",
	"description": "description",
	"done":        "done",
}

func (b *SQLiteBackend) List(ctx context.Context, filter remote.Filter) ([]task.Task, error) {
	query := "SELECT id, name, description, done, created_at FROM todos"
	var conds []string
	var args []any

	for _, key := range filter.Keys() {
		col, ok := columns[key]
		if !ok {
			return []task.Task{}, nil
		}
		val := any(filter[key])
		if key == "done" {
			done, err := strconv.ParseBool(filter[key])
			if err != nil {
				return []task.Task{}, nil
			}
			val = boolToInt(done)
		}
		conds = append(conds, col+" = ?")
		args = append(args, val)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (b *SQLiteBackend) Create(ctx context.Context, t task.Task) (task.Task, error) {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO todos (id, name, description, done, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Description, boolToInt(t.Done), t.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return task.Task{}, fmt.Errorf("insert todo: %w", err)
	}
	return t, nil
}

func (b *SQLiteBackend) Update(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return task.Task{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, "SELECT id, name, description, done, created_at FROM todos WHERE id = ?", id)
	cur, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, ErrNotFound
	}
	if err != nil {
		return task.Task{}, err
	}

	next := patch.Apply(cur)
	_, err = tx.ExecContext(ctx, `
		UPDATE todos SET name = ?, description = ?, done = ? WHERE id = ?
	`, next.Name, next.Description, boolToInt(next.Done), id)
	if err != nil {
		return task.Task{}, fmt.Errorf("update todo %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return task.Task{}, err
	}
	return next, nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (task.Task, error) {
	var t task.Task
	var done int
	var created string
	if err := s.Scan(&t.ID, &t.Name, &t.Description, &done, &created); err != nil {
		return task.Task{}, err
	}
	t.Done = done != 0

	at, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return task.Task{}, fmt.Errorf("parse created_at of %s: %w", t.ID, err)
	}
	t.CreatedAt = at
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
