package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

// Intent names the user action behind a request
type Intent string

const (
	IntentLoad   Intent = "load"
	IntentCreate Intent = "create"
	IntentRename Intent = "rename"
	IntentToggle Intent = "toggle"
	IntentDelete Intent = "delete"
	IntentFilter Intent = "filter"
)

// Outcome describes how a request was reconciled
type Outcome int

const (
	// OutcomePending means the request has not completed yet.
	OutcomePending Outcome = iota
	// OutcomeApplied means the store confirmed and local state was aligned.
	OutcomeApplied
	// OutcomeRolledBack means the store call failed and the optimistic
	// change was undone.
	OutcomeRolledBack
	// OutcomeDeclined means the user declined confirmation; nothing was sent.
	OutcomeDeclined
	// OutcomeDiscarded means the result arrived but no longer applied,
	// e.g. the task was deleted meanwhile or the controller was closed.
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeApplied:
		return "applied"
	case OutcomeRolledBack:
		return "rolled back"
	case OutcomeDeclined:
		return "declined"
	case OutcomeDiscarded:
		return "discarded"
	}
	return "unknown"
}

// Request tracks one intent from dispatch to reconciliation
type Request struct {
	ID       string
	Intent   Intent
	TaskID   string
	IssuedAt time.Time

	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	outcome Outcome
	err     error
	result  task.Task
}

func newRequest(intent Intent, taskID string, now time.Time) *Request {
	return &Request{
		ID:       uuid.NewString(),
		Intent:   intent,
		TaskID:   taskID,
		IssuedAt: now,
		done:     make(chan struct{}),
	}
}

func (r *Request) finish(outcome Outcome, err error) {
	r.once.Do(func() {
		r.mu.Lock()
		r.outcome = outcome
		r.err = err
		r.mu.Unlock()
		close(r.done)
	})
}

func (r *Request) setResult(t task.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = t
}

// Done is closed once the request is fully reconciled
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the request completes and returns its error
func (r *Request) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Outcome returns the current outcome
func (r *Request) Outcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

// Err returns the store error that failed the request, if any
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Task returns the authoritative record the store returned, if any
func (r *Request) Task() task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// ShortID returns a prefix of the correlation id for log lines
func (r *Request) ShortID() string {
	if len(r.ID) > 8 {
		return r.ID[:8]
	}
	return r.ID
}
