package reconcile

import (
	"fmt"
	"time"

	"github.com/LevdanskyVitaliy/todo-sync/internal/remote"
	"github.com/LevdanskyVitaliy/todo-sync/internal/search"
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

// Mode selects which tasks the collection holds
type Mode int

const (
	ModeAll Mode = iota
	ModeOpenOnly
)

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeOpenOnly:
		return "open"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Filter returns the store filter matching the mode
func (m Mode) Filter() remote.Filter {
	if m == ModeOpenOnly {
		return remote.OpenOnly()
	}
	return nil
}

// Notice is a user-visible report of a failed remote call
type Notice struct {
	RequestID string
	Intent    Intent
	TaskID    string
	Err       error
	At        time.Time
}

func (n Notice) String() string {
	if n.TaskID == "" {
		return fmt.Sprintf("%s failed: %v", n.Intent, n.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", n.Intent, n.TaskID, n.Err)
}

type revKey struct {
	id    string
	field task.Field
}

// State is the application state owned by a Controller
type State struct {
	Tasks     *task.Collection
	Mode      Mode
	Query     string
	OpenCount int
	Notices   []Notice

	// revs holds the revision of the latest local write to each task field;
	// confirmed is the revision at which the store last accepted a mutation
	revs      map[revKey]uint64
	nextRev   uint64
	confirmed uint64

	// listGen is the generation of the latest collection fetch issued;
	// countGen of the latest count fetch issued, countShown of the one applied
	listGen    uint64
	countGen   uint64
	countShown uint64
}

// NewState returns an empty state in ModeAll
func NewState() *State {
	return &State{
		Tasks: task.NewCollection(nil),
		Mode:  ModeAll,
		revs:  make(map[revKey]uint64),
	}
}

// Snapshot is a read-only copy of what the view shows
type Snapshot struct {
	// Tasks is the rendered sequence: ranked search results, or open tasks
	// followed by done tasks.
	Tasks []task.Task

	// All is the collection in its own order.
	All []task.Task

	Mode      Mode
	Query     string
	OpenCount int

	// LocalOpen counts open tasks in the local collection. It can differ
	// from OpenCount, which is the store's answer.
	LocalOpen int

	Notices []Notice
	Pending int
	Index   search.Stats
}
