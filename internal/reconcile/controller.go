package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LevdanskyVitaliy/todo-sync/internal/logger"
	"github.com/LevdanskyVitaliy/todo-sync/internal/remote"
	"github.com/LevdanskyVitaliy/todo-sync/internal/search"
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
	"github.com/LevdanskyVitaliy/todo-sync/internal/view"
)

var (
	// ErrValidation is returned synchronously for intents with bad input.
	ErrValidation = errors.New("validation failed")

	// ErrConfirmationDeclined may be returned by a Confirmer to decline.
	// The request then completes as OutcomeDeclined, not as a failure.
	ErrConfirmationDeclined = errors.New("confirmation declined")

	// ErrNotFound is returned when an intent names a task not in the collection.
	ErrNotFound = errors.New("task not found")

	// ErrClosed is returned for intents issued after Close.
	ErrClosed = errors.New("controller closed")

	// ErrNotDeleted is recorded when the store answers a delete without
	// confirming it.
	ErrNotDeleted = errors.New("store did not confirm delete")
)

const (
	defaultTimeout = 10 * time.Second

	// maxListAttempts bounds refetches of a list that raced a mutation
	maxListAttempts = 3
)

// Confirmer asks the user to approve a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, t task.Task) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, t task.Task) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, t task.Task) (bool, error) {
	return f(ctx, t)
}

// Options configures a Controller
type Options struct {
	// Timeout bounds every remote call. Zero means 10s.
	Timeout time.Duration

	Search search.Options

	// Clock stamps creation times and notices. Nil means time.Now.
	Clock func() time.Time
}

// Controller owns the application state and reconciles it with a store
type Controller struct {
	store   remote.Store
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	state   *State
	index   *search.Index
	pending map[string]*Request
	closed  bool
}

// New creates a Controller over store. Call Load to populate it.
func New(store remote.Store, opts Options) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Controller{
		store:   store,
		timeout: opts.Timeout,
		now:     opts.Clock,
		state:   NewState(),
		index:   search.New(opts.Search),
		pending: make(map[string]*Request),
	}
}

// Load fetches the collection for the current mode and the open count
func (c *Controller) Load(ctx context.Context) (*Request, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	mode := c.state.Mode
	f := beginList(c.state)
	req := newRequest(IntentLoad, "", c.now())
	c.mu.Unlock()

	c.dispatch(ctx, req, func(ctx context.Context) (Outcome, error) {
		tasks, fetched, res, err := c.fetchList(ctx, req, mode, f)
		if err != nil {
			c.fail(req, err, nil)
			return OutcomeRolledBack, err
		}
		if res != listApplied {
			return OutcomeDiscarded, nil
		}
		if mode == ModeOpenOnly {
			c.showCount(req, len(tasks), fetched.count)
		} else {
			c.refreshCount(ctx, req)
		}
		return OutcomeApplied, nil
	})
	return req, nil
}

// Create validates the input and asks the store to create a task.
// Nothing is inserted locally until the store has assigned an id.
func (c *Controller) Create(ctx context.Context, name, description string) (*Request, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	now := c.now()
	req := newRequest(IntentCreate, "", now)
	c.mu.Unlock()

	draft := task.New(name, description, now)

	c.dispatch(ctx, req, func(ctx context.Context) (Outcome, error) {
		created, err := c.store.Create(ctx, draft)
		if err != nil {
			c.fail(req, err, nil)
			return OutcomeRolledBack, err
		}
		req.setResult(created)

		// the mode when the record lands decides how it is shown
		if c.Mode() == ModeOpenOnly {
			return c.reloadOpen(ctx, req), nil
		}
		if !c.commit(req, "insert", true, func(s *State) bool { return insertCreated(s, created) }) {
			return OutcomeDiscarded, nil
		}
		c.refreshCount(ctx, req)
		return OutcomeApplied, nil
	})
	return req, nil
}

// Rename changes a task's name optimistically
func (c *Controller) Rename(ctx context.Context, id, name string) (*Request, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	return c.update(ctx, IntentRename, id, false, func(task.Task) task.Patch {
		return task.Rename(name)
	})
}

// Toggle flips a task's done flag optimistically. The open count follows
// once the store has confirmed.
func (c *Controller) Toggle(ctx context.Context, id string) (*Request, error) {
	return c.update(ctx, IntentToggle, id, true, func(cur task.Task) task.Patch {
		return task.SetDone(!cur.Done)
	})
}

func (c *Controller) update(ctx context.Context, intent Intent, id string, recount bool, build func(task.Task) task.Patch) (*Request, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	cur, ok := c.state.Tasks.Find(id)
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	patch := build(cur)
	prev, revs, _ := applyOptimistic(c.state, id, patch)
	c.rebuildLocked()
	req := newRequest(intent, id, c.now())
	logger.Debug("%s %s: optimistic %s on %s", intent, req.ShortID(), patch.Fields(), id)
	c.mu.Unlock()

	c.dispatch(ctx, req, func(ctx context.Context) (Outcome, error) {
		updated, err := c.store.Update(ctx, id, patch)
		if err != nil {
			c.fail(req, err, func(s *State) bool { return rollbackUpdate(s, id, patch, revs, prev) })
			return OutcomeRolledBack, err
		}
		req.setResult(updated)

		applied := c.commit(req, "confirm", true, func(s *State) bool {
			present := s.Tasks.Has(id)
			confirmUpdate(s, id, revs, updated)
			return present
		})
		if recount {
			c.refreshCount(ctx, req)
		}
		if !applied {
			return OutcomeDiscarded, nil
		}
		return OutcomeApplied, nil
	})
	return req, nil
}

// Delete asks confirm for approval and then asks the store to delete.
// The task stays in the collection until the store confirms.
func (c *Controller) Delete(ctx context.Context, id string, confirm Confirmer) (*Request, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	cur, ok := c.state.Tasks.Find(id)
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	req := newRequest(IntentDelete, id, c.now())

	yes := false
	if confirm != nil {
		var err error
		yes, err = confirm.Confirm(ctx, cur)
		if err != nil && !errors.Is(err, ErrConfirmationDeclined) {
			return nil, fmt.Errorf("confirm delete %s: %w", id, err)
		}
	}
	if !yes {
		logger.Debug("%s %s: declined for %s", req.Intent, req.ShortID(), id)
		req.finish(OutcomeDeclined, nil)
		return req, nil
	}

	c.dispatch(ctx, req, func(ctx context.Context) (Outcome, error) {
		deleted, err := c.store.Delete(ctx, id)
		if err == nil && !deleted {
			err = fmt.Errorf("%w: %s", ErrNotDeleted, id)
		}
		if err != nil {
			c.fail(req, err, nil)
			return OutcomeRolledBack, err
		}

		applied := c.commit(req, "remove", true, func(s *State) bool { return removeDeleted(s, id) })
		c.refreshCount(ctx, req)
		if !applied {
			return OutcomeDiscarded, nil
		}
		return OutcomeApplied, nil
	})
	return req, nil
}

// SetMode switches between all tasks and open tasks only and replaces the
// collection with a fresh fetch. Setting the current mode is a no-op.
func (c *Controller) SetMode(ctx context.Context, mode Mode) (*Request, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	req := newRequest(IntentFilter, "", c.now())
	if c.state.Mode == mode {
		c.mu.Unlock()
		req.finish(OutcomeApplied, nil)
		return req, nil
	}
	prev, f := changeMode(c.state, mode)
	logger.Debug("%s %s: mode %s -> %s (gen %d)", req.Intent, req.ShortID(), prev, mode, f.gen)
	c.mu.Unlock()

	c.dispatch(ctx, req, func(ctx context.Context) (Outcome, error) {
		tasks, fetched, res, err := c.fetchList(ctx, req, mode, f)
		if err != nil {
			c.fail(req, err, func(s *State) bool {
				revertMode(s, prev, fetched.gen)
				return false
			})
			return OutcomeRolledBack, err
		}
		if res != listApplied {
			return OutcomeDiscarded, nil
		}
		if mode == ModeOpenOnly {
			c.showCount(req, len(tasks), fetched.count)
		}
		return OutcomeApplied, nil
	})
	return req, nil
}

// SetQuery changes the search query. It never touches the store.
func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Query = query
}

// Mode returns the current view mode
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Mode
}

// View returns what should be shown right now
func (c *Controller) View() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := c.state.Tasks.Tasks()
	notices := make([]Notice, len(c.state.Notices))
	copy(notices, c.state.Notices)

	return Snapshot{
		Tasks:     view.Render(all, c.state.Query, c.index),
		All:       all,
		Mode:      c.state.Mode,
		Query:     c.state.Query,
		OpenCount: c.state.OpenCount,
		LocalOpen: view.OpenCount(all),
		Notices:   notices,
		Pending:   len(c.pending),
		Index:     c.index.Stats(),
	}
}

// Notices returns the recorded failure notices
func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.state.Notices))
	copy(out, c.state.Notices)
	return out
}

// DismissNotices clears and returns the recorded notices
func (c *Controller) DismissNotices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return takeNotices(c.state)
}

// Wait blocks until no request is in flight
func (c *Controller) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		reqs := make([]*Request, 0, len(c.pending))
		for _, r := range c.pending {
			reqs = append(reqs, r)
		}
		c.mu.Unlock()

		if len(reqs) == 0 {
			return nil
		}
		for _, r := range reqs {
			select {
			case <-r.Done():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close stops the controller. In-flight calls run to completion but their
// results are ignored, and new intents fail with ErrClosed.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// dispatch runs call in the background with a bounded context. The request
// finishes with whatever call returns. Cancelling ctx does not abort it.
func (c *Controller) dispatch(ctx context.Context, req *Request, call func(ctx context.Context) (Outcome, error)) {
	c.mu.Lock()
	c.pending[req.ID] = req
	c.mu.Unlock()

	go func() {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		outcome, err := call(callCtx)

		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()

		logger.Debug("%s %s: %s", req.Intent, req.ShortID(), outcome)
		req.finish(outcome, err)
	}()
}

// commit runs fn as the single state writer. It returns false without running fn
// once the controller is closed.
func (c *Controller) commit(req *Request, step string, reindex bool, fn func(s *State) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		logger.Debug("%s %s: %s ignored after close", req.Intent, req.ShortID(), step)
		return false
	}
	changed := fn(c.state)
	if changed && reindex {
		c.rebuildLocked()
	}
	logger.Debug("%s %s: %s applied=%v", req.Intent, req.ShortID(), step, changed)
	return changed
}

// fail records a notice for req and runs undo, if any, in the same transition
func (c *Controller) fail(req *Request, err error, undo func(s *State) bool) {
	logger.Error("%s %s failed: %v", req.Intent, req.TaskID, err)
	c.commit(req, "fail", true, func(s *State) bool {
		addNotice(s, Notice{
			RequestID: req.ID,
			Intent:    req.Intent,
			TaskID:    req.TaskID,
			Err:       err,
			At:        c.now(),
		})
		if undo == nil {
			return false
		}
		return undo(s)
	})
}

// refreshCount fetches the open list and shows its length
func (c *Controller) refreshCount(ctx context.Context, req *Request) {
	c.mu.Lock()
	gen := beginCount(c.state)
	c.mu.Unlock()

	open, err := c.store.List(ctx, remote.OpenOnly())
	if err != nil {
		c.fail(req, fmt.Errorf("refresh open count: %w", err), nil)
		return
	}
	c.commit(req, "count", false, func(s *State) bool { return applyCount(s, len(open), gen) })
}

// showCount shows a count derived from an open-only list. gen is the count
// generation reserved when that list was requested.
func (c *Controller) showCount(req *Request, n int, gen uint64) {
	c.commit(req, "count", false, func(s *State) bool { return applyCount(s, n, gen) })
}

// reloadOpen refetches the open-only collection and derives the count from it
func (c *Controller) reloadOpen(ctx context.Context, req *Request) Outcome {
	c.mu.Lock()
	f := beginList(c.state)
	c.mu.Unlock()

	tasks, fetched, res, err := c.fetchList(ctx, req, ModeOpenOnly, f)
	if err != nil {
		c.fail(req, fmt.Errorf("reload open tasks: %w", err), nil)
		return OutcomeApplied
	}
	if res != listApplied {
		return OutcomeDiscarded
	}
	c.showCount(req, len(tasks), fetched.count)
	return OutcomeApplied
}

// fetchList fetches the collection for mode and swaps it in. When the store
// accepted a mutation while the fetch was in flight, the list may predate it
// and is fetched again, up to maxListAttempts times. The last attempt is
// applied regardless, keeping fields written locally since it was issued.
// The returned listFetch is the one that produced tasks.
func (c *Controller) fetchList(ctx context.Context, req *Request, mode Mode, f listFetch) ([]task.Task, listFetch, listResult, error) {
	for attempt := 1; ; attempt++ {
		tasks, err := c.store.List(ctx, mode.Filter())
		if err != nil {
			return nil, f, listSuperseded, err
		}

		final := attempt >= maxListAttempts
		res := listSuperseded
		c.commit(req, "list", true, func(s *State) bool {
			res = replaceList(s, tasks, f, final)
			if res == listStale {
				f = beginList(s)
			}
			return res == listApplied
		})
		if res != listStale {
			return tasks, f, res, nil
		}
		logger.Debug("%s %s: list overlapped a confirmed change, refetching", req.Intent, req.ShortID())
	}
}

func (c *Controller) rebuildLocked() {
	start := time.Now()
	c.index.Rebuild(c.state.Tasks.Tasks())
	logger.Debug("search index rebuilt: %d documents in %s", c.index.Len(), time.Since(start))
}
