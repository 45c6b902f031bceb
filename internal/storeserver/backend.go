// Package storeserver is a development implementation of the remote task
// store: the REST contract the todo client talks to, served with gin over
// a SQLite or MongoDB backend.
package storeserver

import (
	"context"
	"errors"

	"github.com/LevdanskyVitaliy/todo-sync/internal/remote"
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

// ErrNotFound is returned by backends for unknown ids
var ErrNotFound = errors.New("task not found")

// Backend persists tasks for the server.
// Implementations: SQLiteBackend, MongoBackend
type Backend interface {
	// List returns the tasks matching filter in insertion order.
	List(ctx context.Context, filter remote.Filter) ([]task.Task, error)

	// Create stores t, which already carries its id.
	Create(ctx context.Context, t task.Task) (task.Task, error)

	// Update applies patch and returns the stored task.
	Update(ctx context.Context, id string, patch task.Patch) (task.Task, error)

	// Delete removes the task with id.
	Delete(ctx context.Context, id string) error

	Close() error
}
