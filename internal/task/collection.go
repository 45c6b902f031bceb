package task

// Collection is the ordered, id-unique set of tasks backing the current view.
// New records enter at the front; Replace keeps a record's position.
type Collection struct {
	tasks []Task
}

// NewCollection builds a collection from tasks in the given order.
// Later duplicates of an id are dropped so ids stay unique.
func NewCollection(tasks []Task) *Collection {
	c := &Collection{tasks: make([]Task, 0, len(tasks))}
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		c.tasks = append(c.tasks, t)
	}
	return c
}

// Len returns the number of tasks
func (c *Collection) Len() int {
	return len(c.tasks)
}

// Tasks returns a copy of the tasks in collection order
func (c *Collection) Tasks() []Task {
	out := make([]Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// IndexOf returns the position of the task with the given id, or -1
func (c *Collection) IndexOf(id string) int {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Find finds a task by ID
func (c *Collection) Find(id string) (Task, bool) {
	i := c.IndexOf(id)
	if i < 0 {
		return Task{}, false
	}
	return c.tasks[i], true
}

// Has reports whether a task with the given id is present
func (c *Collection) Has(id string) bool {
	return c.IndexOf(id) >= 0
}

// Prepend inserts t at the front. It refuses empty and duplicate ids.
func (c *Collection) Prepend(t Task) bool {
	if t.ID == "" || c.Has(t.ID) {
		return false
	}
	c.tasks = append([]Task{t}, c.tasks...)
	return true
}

// Replace swaps the record with t's id in place
func (c *Collection) Replace(t Task) bool {
	i := c.IndexOf(t.ID)
	if i < 0 {
		return false
	}
	c.tasks[i] = t
	return true
}

// Remove removes a task by ID
func (c *Collection) Remove(id string) bool {
	i := c.IndexOf(id)
	if i < 0 {
		return false
	}
	c.tasks = append(c.tasks[:i:i], c.tasks[i+1:]...)
	return true
}
