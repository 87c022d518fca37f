// Package item implements a file-backed task store: items arranged in
// sequential or parallel hierarchies, projects addressed through their root
// item, and tags used as boolean markers.
//
// Items, projects and tags are stored as JSONL files in a single directory.
// Every read-modify-write holds an exclusive lock on store.lock so separate
// processes never interleave writes.
package item

import (
	"slices"
	"time"
)

// Status represents the completion state of an item.
type Status string

const (
	// StatusOpen indicates the item still needs doing.
	StatusOpen Status = "open"

	// StatusCompleted indicates the item was finished.
	StatusCompleted Status = "completed"

	// StatusDropped indicates the item was abandoned.
	StatusDropped Status = "dropped"
)

// ValidStatuses returns all valid status values.
func ValidStatuses() []Status {
	return []Status{StatusOpen, StatusCompleted, StatusDropped}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	return slices.Contains(ValidStatuses(), s)
}

// IsResolved returns true for completed and dropped items.
func (s Status) IsResolved() bool {
	return s == StatusCompleted || s == StatusDropped
}

// ProjectStatus represents the state of a project.
type ProjectStatus string

const (
	ProjectActive  ProjectStatus = "active"
	ProjectOnHold  ProjectStatus = "on_hold"
	ProjectDone    ProjectStatus = "done"
	ProjectDropped ProjectStatus = "dropped"
)

// ValidProjectStatuses returns all valid project status values.
func ValidProjectStatuses() []ProjectStatus {
	return []ProjectStatus{ProjectActive, ProjectOnHold, ProjectDone, ProjectDropped}
}

// IsValid returns true if the status is a known valid value.
func (s ProjectStatus) IsValid() bool {
	return slices.Contains(ValidProjectStatuses(), s)
}

// MaxNameLength is the maximum allowed length for an item, project or tag name.
const MaxNameLength = 500

// Item is a single unit of work.
type Item struct {
	// ID is a unique 8-char identifier derived from the initial name and creation time.
	ID string `json:"id"`

	// Name is a single-line summary.
	Name string `json:"name"`

	// Note is free text.
	Note string `json:"note,omitempty"`

	// Due is the item's own due date (nil when unset).
	Due *time.Time `json:"due,omitempty"`

	// Status is the completion state.
	Status Status `json:"status"`

	// Tags holds tag IDs in the order they were added.
	Tags []string `json:"tags,omitempty"`

	// Parent is the containing item (empty for top-level items).
	Parent string `json:"parent,omitempty"`

	// Children are the contained items in sequence order.
	Children []string `json:"children,omitempty"`

	// Sequential means children must be done in order; otherwise they are parallel.
	Sequential bool `json:"sequential,omitempty"`

	// Project is set on a project's root item and names that project.
	Project string `json:"project,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DroppedAt   *time.Time `json:"dropped_at,omitempty"`
}

// HasTag reports whether the item carries tagID.
func (it *Item) HasTag(tagID string) bool {
	return slices.Contains(it.Tags, tagID)
}

// HasChildren reports whether the item contains other items.
func (it *Item) HasChildren() bool {
	return len(it.Children) > 0
}

// Project groups a hierarchy of items under a root item.
type Project struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Status    ProjectStatus `json:"status"`
	Root      string        `json:"root"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Tag is a named boolean marker.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
