package task

import (
	"sort"
	"strings"
	"time"
)

// Task is a single todo record as exchanged with the remote store.
// CreatedAt travels as "date" to match the store's wire format.
type Task struct {
	ID          string    `json:"id" bson:"_id" yaml:"id"`
	Name        string    `json:"name" bson:"name" yaml:"name"`
	Description string    `json:"description" bson:"description" yaml:"description"`
	Done        bool      `json:"done" bson:"done" yaml:"done"`
	CreatedAt   time.Time `json:"date" bson:"date" yaml:"date"`
}

// New builds an unsaved open task stamped with the given creation time.
// The ID is left empty; the remote store assigns it.
func New(name, description string, now time.Time) Task {
	return Task{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Done:        false,
		CreatedAt:   now.UTC(),
	}
}

// IsOpen reports whether the task still needs doing
func (t Task) IsOpen() bool {
	return !t.Done
}

// Field names a mutable task field
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldDone        Field = "done"
)

// Patch represents a partial update.
// nil pointer => "no change"
type Patch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Done        *bool   `json:"done,omitempty"`
}

// Rename returns a patch that only sets the name
func Rename(name string) Patch {
	return Patch{Name: &name}
}

// SetDone returns a patch that only sets the done flag
func SetDone(done bool) Patch {
	return Patch{Done: &done}
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Done == nil
}

// Fields lists the fields the patch touches, in a fixed order
func (p Patch) Fields() []Field {
	var fields []Field
	if p.Name != nil {
		fields = append(fields, FieldName)
	}
	if p.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if p.Done != nil {
		fields = append(fields, FieldDone)
	}
	return fields
}

// Apply returns t with the patch applied. ID and CreatedAt never change.
func (p Patch) Apply(t Task) Task {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Done != nil {
		t.Done = *p.Done
	}
	return t
}

// Inverse returns the patch that restores prev's values for every field p touches
func (p Patch) Inverse(prev Task) Patch {
	var inv Patch
	if p.Name != nil {
		name := prev.Name
		inv.Name = &name
	}
	if p.Description != nil {
		desc := prev.Description
		inv.Description = &desc
	}
	if p.Done != nil {
		done := prev.Done
		inv.Done = &done
	}
	return inv
}

// Drop returns p without the given field
func (p Patch) Drop(field Field) Patch {
	switch field {
	case FieldName:
		p.Name = nil
	case FieldDescription:
		p.Description = nil
	case FieldDone:
		p.Done = nil
	}
	return p
}

// Only restricts the patch to the given field, taking values from src
func Only(field Field, src Task) Patch {
	switch field {
	case FieldName:
		return Patch{Name: &src.Name}
	case FieldDescription:
		return Patch{Description: &src.Description}
	case FieldDone:
		return Patch{Done: &src.Done}
	}
	return Patch{}
}

// SortNewestFirst orders tasks reverse-chronologically by CreatedAt.
// The sort is stable so equal timestamps keep the store's order.
func SortNewestFirst(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}
