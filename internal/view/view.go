// Package view derives the rendered task sequence from the collection and
// the search query.
package view

import (
	"strings"

	"github.com/LevdanskyVitaliy/todo-sync/internal/search"
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

// Searcher returns ranked matches for a query.
// Implementations: search.Index
type Searcher interface {
	Search(query string) []search.Result
}

// Active reports whether query turns search on. Whitespace does not.
func Active(query string) bool {
	return strings.TrimSpace(query) != ""
}

// Render returns the sequence to display. An active query yields exactly
// the searcher's ranked results; otherwise tasks are partitioned open-first.
func Render(tasks []task.Task, query string, s Searcher) []task.Task {
	if Active(query) && s != nil {
		results := s.Search(query)
		out := make([]task.Task, len(results))
		for i, r := range results {
			out[i] = r.Task
		}
		return out
	}
	return Partition(tasks)
}

// Partition stably splits tasks into open then done, keeping the relative
// order inside each bucket.
func Partition(tasks []task.Task) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsOpen() {
			out = append(out, t)
		}
	}
	for _, t := range tasks {
		if !t.IsOpen() {
			out = append(out, t)
		}
	}
	return out
}

// OpenCount counts open tasks in a sequence
func OpenCount(tasks []task.Task) int {
	n := 0
	for _, t := range tasks {
		if t.IsOpen() {
			n++
		}
	}
	return n
}
