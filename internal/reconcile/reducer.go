package reconcile

import (
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

// The functions in this file are the only state transitions. Each one
// reports whether it changed the task collection, which tells the
// controller to rebuild the search index.

// fieldRevs maps each field an optimistic write touched to its revision
type fieldRevs map[task.Field]uint64

// applyOptimistic applies patch to the task with id and stamps a fresh
// revision on every touched field.
func applyOptimistic(s *State, id string, patch task.Patch) (task.Task, fieldRevs, bool) {
	prev, ok := s.Tasks.Find(id)
	if !ok {
		return task.Task{}, nil, false
	}

	revs := make(fieldRevs)
	for _, f := range patch.Fields() {
		s.nextRev++
		s.revs[revKey{id, f}] = s.nextRev
		revs[f] = s.nextRev
	}
	s.Tasks.Replace(patch.Apply(prev))
	return prev, revs, true
}

// confirmUpdate adopts the authoritative values for the fields whose
// revision is still the one this write stamped. Fields written again since
// then keep the newer local value. A task that is gone stays gone.
func confirmUpdate(s *State, id string, revs fieldRevs, authoritative task.Task) bool {
	markConfirmed(s)
	cur, ok := s.Tasks.Find(id)
	if !ok {
		return false
	}

	next := cur
	for f, rev := range revs {
		if s.revs[revKey{id, f}] == rev {
			next = task.Only(f, authoritative).Apply(next)
		}
	}
	if next == cur {
		return false
	}
	return s.Tasks.Replace(next)
}

// rollbackUpdate undoes patch for the fields whose revision is still the one
// this write stamped, restoring prev's values through the inverse patch.
func rollbackUpdate(s *State, id string, patch task.Patch, revs fieldRevs, prev task.Task) bool {
	cur, ok := s.Tasks.Find(id)
	if !ok {
		return false
	}

	for f, rev := range revs {
		if s.revs[revKey{id, f}] != rev {
			patch = patch.Drop(f)
		}
	}
	if patch.IsEmpty() {
		return false
	}

	next := patch.Inverse(prev).Apply(cur)
	if next == cur {
		return false
	}
	return s.Tasks.Replace(next)
}

// insertCreated puts a record the store just created at the front
func insertCreated(s *State, created task.Task) bool {
	markConfirmed(s)
	return s.Tasks.Prepend(created)
}

// removeDeleted drops a task the store confirmed deleted
func removeDeleted(s *State, id string) bool {
	markConfirmed(s)
	if !s.Tasks.Remove(id) {
		return false
	}
	for _, f := range []task.Field{task.FieldName, task.FieldDescription, task.FieldDone} {
		delete(s.revs, revKey{id, f})
	}
	return true
}

// markConfirmed records that the store accepted a mutation. A list fetch
// issued before this point may not reflect it.
func markConfirmed(s *State) {
	s.nextRev++
	s.confirmed = s.nextRev
}

// listFetch identifies one collection fetch
type listFetch struct {
	gen   uint64 // list generation
	count uint64 // count generation reserved for a count derived from it
	since uint64 // revision clock when it was issued
}

type listResult int

const (
	listSuperseded listResult = iota
	listApplied
	listStale
)

// beginList starts a collection fetch. The count generation is reserved
// now so that a count derived from this list ranks by issue order.
func beginList(s *State) listFetch {
	s.listGen++
	return listFetch{gen: s.listGen, count: beginCount(s), since: s.nextRev}
}

// replaceList swaps in a fetched collection. A fetch superseded by a newer
// one is dropped. A fetch that overlapped a store-confirmed mutation is
// reported stale so it can be retried, unless final is set. Fields written
// locally after the fetch was issued keep their local values.
func replaceList(s *State, tasks []task.Task, f listFetch, final bool) listResult {
	if f.gen != s.listGen {
		return listSuperseded
	}
	if s.confirmed > f.since && !final {
		return listStale
	}

	sorted := make([]task.Task, len(tasks))
	copy(sorted, tasks)
	task.SortNewestFirst(sorted)
	for i, t := range sorted {
		local, ok := s.Tasks.Find(t.ID)
		if !ok {
			continue
		}
		for _, field := range []task.Field{task.FieldName, task.FieldDescription, task.FieldDone} {
			if s.revs[revKey{t.ID, field}] > f.since {
				sorted[i] = task.Only(field, local).Apply(sorted[i])
			}
		}
	}
	s.Tasks = task.NewCollection(sorted)

	for k := range s.revs {
		if !s.Tasks.Has(k.id) {
			delete(s.revs, k)
		}
	}
	return listApplied
}

// changeMode switches the mode and starts the fetch for it
func changeMode(s *State, mode Mode) (prev Mode, f listFetch) {
	prev = s.Mode
	s.Mode = mode
	return prev, beginList(s)
}

// revertMode restores prev after a failed fetch, unless a newer mode change
// has been made since.
func revertMode(s *State, prev Mode, gen uint64) bool {
	if gen != s.listGen {
		return false
	}
	s.Mode = prev
	return true
}

// beginCount starts an open-count fetch and returns its generation
func beginCount(s *State) uint64 {
	s.countGen++
	return s.countGen
}

// applyCount shows n unless a newer count has already been shown
func applyCount(s *State, n int, gen uint64) bool {
	if gen <= s.countShown {
		return false
	}
	s.countShown = gen
	s.OpenCount = n
	return true
}

func addNotice(s *State, n Notice) {
	s.Notices = append(s.Notices, n)
}

func takeNotices(s *State) []Notice {
	out := s.Notices
	s.Notices = nil
	return out
}
