// Package remote is the client side of the remote task store.
//
// The store exposes four operations over HTTP/JSON:
//
//	GET    /todos?done=false   list, optionally filtered by equality predicates
//	POST   /todos              create, the store assigns the id
//	PATCH  /todos/{id}         partial update, returns the updated task
//	DELETE /todos/{id}         delete, success is signaled by status
//
// Every failure is classified as either ErrRemoteUnavailable (the request
// never got a response) or ErrRemoteRejected (the store answered with a
// non-success status or an unreadable body). The client never retries;
// that decision belongs to the caller.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

var (
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrRemoteRejected    = errors.New("remote store rejected request")
)

// Store is the remote task store.
// Implementations: HTTPClient
type Store interface {
	// List returns the tasks matching every predicate in filter.
	List(ctx context.Context, filter Filter) ([]task.Task, error)

	// Create stores t and returns it with its server-assigned id.
	Create(ctx context.Context, t task.Task) (task.Task, error)

	// Update applies patch to the task and returns the stored result.
	Update(ctx context.Context, id string, patch task.Patch) (task.Task, error)

	// Delete removes the task. false means the store had nothing to delete.
	Delete(ctx context.Context, id string) (bool, error)
}

// StatusError is returned when the store answers with a non-success status
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: remote store returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: remote store returned status %d: %s", e.Op, e.Status, body)
}

func (e *StatusError) Unwrap() error {
	return ErrRemoteRejected
}

// Filter is a set of equality predicates on task fields, keyed by the
// field's wire name. An empty filter matches everything.
type Filter map[string]string

// OpenOnly matches tasks that are not done
func OpenOnly() Filter {
	return Filter{"done": "false"}
}

// Query encodes the filter as URL query parameters
func (f Filter) Query() url.Values {
	q := url.Values{}
	for k, v := range f {
		q.Set(k, v)
	}
	return q
}

// String returns the encoded query string, keys sorted
func (f Filter) String() string {
	return f.Query().Encode()
}

// FilterFromQuery decodes equality predicates from URL query parameters.
// Only the first value of each key is kept.
func FilterFromQuery(q url.Values) Filter {
	if len(q) == 0 {
		return nil
	}
	f := make(Filter, len(q))
	for k := range q {
		f[k] = q.Get(k)
	}
	return f
}

// Keys returns the filter's field names in sorted order
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Matches reports whether t satisfies every predicate.
// Unknown fields never match.
func (f Filter) Matches(t task.Task) bool {
	for k, want := range f {
		switch k {
		case "id":
			if t.ID != want {
				return false
			}
		case "name":
			if t.Name != want {
				return false
			}
		case "description":
			if t.Description != want {
				return false
			}
		case "done":
			b, err := strconv.ParseBool(want)
			if err != nil || t.Done != b {
				return false
			}
		default:
			return false
		}
	}
	return true
}
