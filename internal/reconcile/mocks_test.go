package reconcile

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/LevdanskyVitaliy/todo-sync/internal/remote"
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// hold delays the response of one store call until released
type hold struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

func (h *hold) Release() {
	h.once.Do(func() { close(h.release) })
}

// Arrived blocks until the held call has reached the store
func (h *hold) Arrived(t *testing.T) {
	t.Helper()
	select {
	case <-h.arrived:
	case <-time.After(5 * time.Second):
		t.Fatal("held call never reached the store")
	}
}

// MemStore implements remote.Store in memory. Mutations happen when the
// call arrives; a hold only delays the response.
type MemStore struct {
	mu     sync.Mutex
	tasks  []task.Task
	nextID int
	holds  map[string]*hold
	fail   map[string]error
	calls  []string

	// DeleteResult overrides the confirmation a delete reports when set
	DeleteResult *bool
}

func NewMemStore(tasks ...task.Task) *MemStore {
	m := &MemStore{
		holds:  make(map[string]*hold),
		fail:   make(map[string]error),
		nextID: 100,
	}
	m.tasks = append(m.tasks, tasks...)
	return m
}

// Hold delays the response of the next call with key, e.g. "update:2"
func (m *MemStore) Hold(key string) *hold {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := &hold{arrived: make(chan struct{}), release: make(chan struct{})}
	m.holds[key] = h
	return h
}

// Fail makes the next call with key return err
func (m *MemStore) Fail(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[key] = err
}

func (m *MemStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MemStore) Snapshot() []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]task.Task, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// begin records the call and returns its injected failure and hold
func (m *MemStore) begin(key string) (*hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, key)
	h := m.holds[key]
	err := m.fail[key]
	delete(m.holds, key)
	delete(m.fail, key)
	return h, err
}

func (m *MemStore) respond(ctx context.Context, h *hold) error {
	if h == nil {
		return nil
	}
	close(h.arrived)
	select {
	case <-h.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MemStore) List(ctx context.Context, filter remote.Filter) ([]task.Task, error) {
	h, err := m.begin("list:" + filter.String())

	m.mu.Lock()
	var out []task.Task
	if err == nil {
		out = []task.Task{}
		for _, t := range m.tasks {
			if filter.Matches(t) {
				out = append(out, t)
			}
		}
	}
	m.mu.Unlock()

	if werr := m.respond(ctx, h); werr != nil {
		return nil, werr
	}
	return out, err
}

func (m *MemStore) Create(ctx context.Context, t task.Task) (task.Task, error) {
	h, err := m.begin("create")

	if err == nil {
		m.mu.Lock()
		m.nextID++
		t.ID = strconv.Itoa(m.nextID)
		m.tasks = append(m.tasks, t)
		m.mu.Unlock()
	}

	if werr := m.respond(ctx, h); werr != nil {
		return task.Task{}, werr
	}
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (m *MemStore) Update(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	h, err := m.begin("update:" + id)

	var updated task.Task
	if err == nil {
		m.mu.Lock()
		err = &remote.StatusError{Op: "update", Status: http.StatusNotFound}
		for i, t := range m.tasks {
			if t.ID == id {
				m.tasks[i] = patch.Apply(t)
				updated = m.tasks[i]
				err = nil
				break
			}
		}
		m.mu.Unlock()
	}

	if werr := m.respond(ctx, h); werr != nil {
		return task.Task{}, werr
	}
	return updated, err
}

func (m *MemStore) Delete(ctx context.Context, id string) (bool, error) {
	h, err := m.begin("delete:" + id)

	deleted := false
	if err == nil {
		m.mu.Lock()
		for i, t := range m.tasks {
			if t.ID == id {
				m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
				deleted = true
				break
			}
		}
		if m.DeleteResult != nil {
			deleted = *m.DeleteResult
		}
		m.mu.Unlock()
	}

	if werr := m.respond(ctx, h); werr != nil {
		return false, werr
	}
	return deleted, err
}

func seed(n int, done ...string) []task.Task {
	isDone := make(map[string]bool)
	for _, id := range done {
		isDone[id] = true
	}
	tasks := make([]task.Task, n)
	for i := range tasks {
		id := strconv.Itoa(i + 1)
		tasks[i] = task.Task{
			ID:          id,
			Name:        fmt.Sprintf("Task %s", id),
			Description: fmt.Sprintf("description %s", id),
			Done:        isDone[id],
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
	}
	return tasks
}

func ids(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func always(answer bool) Confirmer {
	return ConfirmFunc(func(context.Context, task.Task) (bool, error) {
		return answer, nil
	})
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
