package item

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/amonks/prereq/internal/ids"
)

// CreateOptions configures a new item.
type CreateOptions struct {
	// Note is the initial note text.
	Note string

	// Due is the item's own due date.
	Due *time.Time

	// Parent is the full ID of the containing item. Empty creates a top-level item.
	Parent string

	// Sequential makes the item's children sequential.
	Sequential bool
}

// Create creates a new open item with the given name.
func (s *Store) Create(name string, opts CreateOptions) (*Item, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	var created Item
	err = s.update(func(snap *snapshot) error {
		if opts.Parent != "" {
			if _, ok := snap.item(opts.Parent); !ok {
				return fmt.Errorf("parent %w: %s", ErrItemNotFound, opts.Parent)
			}
		}

		now := time.Now()
		created = Item{
			ID:         snap.newItemID(name, now),
			Name:       name,
			Note:       opts.Note,
			Due:        opts.Due,
			Status:     StatusOpen,
			Parent:     opts.Parent,
			Sequential: opts.Sequential,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		snap.items = append(snap.items, created)
		if opts.Parent != "" {
			parent, _ := snap.item(opts.Parent)
			parent.Children = append(parent.Children, created.ID)
			parent.UpdatedAt = now
		}
		snap.itemsDirty = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (snap *snapshot) newItemID(name string, now time.Time) string {
	return ids.New(ids.KindItem, name, now, func(id string) bool {
		_, taken := snap.item(id)
		return taken
	})
}

func (snap *snapshot) newProjectID(name string, now time.Time) string {
	return ids.New(ids.KindProject, name, now, func(id string) bool {
		_, taken := snap.project(id)
		return taken
	})
}

func (snap *snapshot) newTagID(name string, now time.Time) string {
	return ids.New(ids.KindTag, name, now, func(id string) bool {
		_, taken := snap.tag(id)
		return taken
	})
}

// ProjectOptions configures a new project.
type ProjectOptions struct {
	Note       string
	Due        *time.Time
	Sequential bool
}

// CreateProject creates a project together with its root item.
func (s *Store) CreateProject(name string, opts ProjectOptions) (*Project, *Item, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, nil, err
	}

	var project Project
	var root Item
	err = s.update(func(snap *snapshot) error {
		now := time.Now()
		root = Item{
			ID:         snap.newItemID(name, now),
			Name:       name,
			Note:       opts.Note,
			Due:        opts.Due,
			Status:     StatusOpen,
			Sequential: opts.Sequential,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		project = Project{
			ID:        snap.newProjectID(name, now),
			Name:      name,
			Status:    ProjectActive,
			Root:      root.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		root.Project = project.ID
		snap.items = append(snap.items, root)
		snap.projects = append(snap.projects, project)
		snap.itemsDirty = true
		snap.projectsDirty = true
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &project, &root, nil
}

// Item returns the item with the exact ID.
func (s *Store) Item(id string) (*Item, error) {
	var found Item
	err := s.view(func(snap *snapshot) error {
		it, ok := snap.item(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		found = *it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// ListFilter configures which items to return.
type ListFilter struct {
	// Tag restricts results to items carrying this tag ID.
	Tag string

	// Status filters by exact status match.
	Status *Status

	// IncludeResolved includes completed and dropped items. Default is false.
	IncludeResolved bool
}

// List returns items matching the filter in store order.
func (s *Store) List(filter ListFilter) ([]Item, error) {
	var result []Item
	err := s.view(func(snap *snapshot) error {
		for _, it := range snap.items {
			if filter.Status != nil {
				if it.Status != *filter.Status {
					continue
				}
			} else if it.Status.IsResolved() && !filter.IncludeResolved {
				continue
			}
			if filter.Tag != "" && !it.HasTag(filter.Tag) {
				continue
			}
			result = append(result, it)
		}
		return nil
	})
	return result, err
}

// TaggedWith returns every item carrying tagID, regardless of status.
func (s *Store) TaggedWith(tagID string) ([]Item, error) {
	return s.List(ListFilter{Tag: tagID, IncludeResolved: true})
}

// modifyItem applies fn to the item with the exact ID and saves it.
func (s *Store) modifyItem(id string, fn func(it *Item, snap *snapshot) error) error {
	return s.update(func(snap *snapshot) error {
		it, ok := snap.item(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		if err := fn(it, snap); err != nil {
			return err
		}
		it.UpdatedAt = time.Now()
		snap.itemsDirty = true
		return nil
	})
}

// AddTag adds tagID to the item. Adding a tag the item already has is a no-op.
func (s *Store) AddTag(id, tagID string) error {
	return s.modifyItem(id, func(it *Item, snap *snapshot) error {
		if _, ok := snap.tag(tagID); !ok {
			return fmt.Errorf("%w: %s", ErrTagNotFound, tagID)
		}
		if !it.HasTag(tagID) {
			it.Tags = append(it.Tags, tagID)
		}
		return nil
	})
}

// RemoveTag removes tagID from the item. Removing an absent tag is a no-op.
func (s *Store) RemoveTag(id, tagID string) error {
	return s.modifyItem(id, func(it *Item, _ *snapshot) error {
		it.Tags = slices.DeleteFunc(it.Tags, func(existing string) bool {
			return existing == tagID
		})
		return nil
	})
}

// SetNote replaces the item's note.
func (s *Store) SetNote(id, note string) error {
	return s.modifyItem(id, func(it *Item, _ *snapshot) error {
		it.Note = note
		return nil
	})
}

// SetDue sets or clears the item's own due date.
func (s *Store) SetDue(id string, due *time.Time) error {
	return s.modifyItem(id, func(it *Item, _ *snapshot) error {
		it.Due = due
		return nil
	})
}

// Rename changes the item's name. Renaming a project root renames the project.
func (s *Store) Rename(id, name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	return s.modifyItem(id, func(it *Item, snap *snapshot) error {
		it.Name = name
		if project, ok := snap.project(it.Project); ok {
			project.Name = name
			project.UpdatedAt = time.Now()
			snap.projectsDirty = true
		}
		return nil
	})
}

// SetSequential switches the item's children between sequential and parallel.
func (s *Store) SetSequential(id string, sequential bool) error {
	return s.modifyItem(id, func(it *Item, _ *snapshot) error {
		it.Sequential = sequential
		return nil
	})
}

// Complete marks items completed.
func (s *Store) Complete(ids []string) ([]Item, error) {
	return s.setStatus(ids, StatusCompleted)
}

// Drop marks items dropped.
func (s *Store) Drop(ids []string) ([]Item, error) {
	return s.setStatus(ids, StatusDropped)
}

// Reopen marks items open again.
func (s *Store) Reopen(ids []string) ([]Item, error) {
	return s.setStatus(ids, StatusOpen)
}

func (s *Store) setStatus(ids []string, status Status) ([]Item, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no item IDs provided")
	}

	var updated []Item
	err := s.update(func(snap *snapshot) error {
		var missing []string
		for _, id := range ids {
			if _, ok := snap.item(id); !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, strings.Join(missing, ", "))
		}

		now := time.Now()
		for _, id := range ids {
			it, _ := snap.item(id)
			it.Status = status
			it.CompletedAt = nil
			it.DroppedAt = nil
			switch status {
			case StatusCompleted:
				it.CompletedAt = &now
			case StatusDropped:
				it.DroppedAt = &now
			}
			it.UpdatedAt = now

			if project, ok := snap.project(it.Project); ok {
				project.Status = projectStatusForRoot(status, project.Status)
				project.UpdatedAt = now
				snap.projectsDirty = true
			}
			updated = append(updated, *it)
		}
		snap.itemsDirty = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func projectStatusForRoot(status Status, current ProjectStatus) ProjectStatus {
	switch status {
	case StatusCompleted:
		return ProjectDone
	case StatusDropped:
		return ProjectDropped
	}
	if current == ProjectDone || current == ProjectDropped {
		return ProjectActive
	}
	return current
}

// Delete removes an item and all of its descendants. Projects rooted at a
// removed item are removed too. Returns the IDs that were deleted.
func (s *Store) Delete(id string) ([]string, error) {
	var deleted []string
	err := s.update(func(snap *snapshot) error {
		it, ok := snap.item(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		if parent, ok := snap.item(it.Parent); ok {
			parent.Children = slices.DeleteFunc(parent.Children, func(child string) bool {
				return child == id
			})
		}

		doomed := map[string]bool{}
		snap.collectDescendants(id, doomed)
		for _, existing := range snap.items {
			if doomed[existing.ID] {
				deleted = append(deleted, existing.ID)
			}
		}

		snap.items = slices.DeleteFunc(snap.items, func(existing Item) bool {
			return doomed[existing.ID]
		})
		before := len(snap.projects)
		snap.projects = slices.DeleteFunc(snap.projects, func(project Project) bool {
			return doomed[project.Root]
		})
		snap.itemsDirty = true
		snap.projectsDirty = before != len(snap.projects)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (snap *snapshot) collectDescendants(id string, into map[string]bool) {
	if into[id] {
		return
	}
	into[id] = true
	it, ok := snap.item(id)
	if !ok {
		return
	}
	for _, child := range it.Children {
		snap.collectDescendants(child, into)
	}
}

// Move reparents an item, appending it to the end of parent's children.
// An empty parent makes the item top-level.
func (s *Store) Move(id, parent string) error {
	return s.update(func(snap *snapshot) error {
		it, ok := snap.item(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		if parent != "" {
			if _, ok := snap.item(parent); !ok {
				return fmt.Errorf("parent %w: %s", ErrItemNotFound, parent)
			}
			subtree := map[string]bool{}
			snap.collectDescendants(id, subtree)
			if subtree[parent] {
				return ErrParentIsDescendant
			}
		}

		now := time.Now()
		if old, ok := snap.item(it.Parent); ok {
			old.Children = slices.DeleteFunc(old.Children, func(child string) bool {
				return child == id
			})
			old.UpdatedAt = now
		}
		it.Parent = parent
		it.UpdatedAt = now
		if next, ok := snap.item(parent); ok {
			next.Children = append(next.Children, id)
			next.UpdatedAt = now
		}
		snap.itemsDirty = true
		return nil
	})
}

// EffectiveDue returns the item's own due date, or else the nearest
// ancestor's. Returns nil when nothing in the chain has a due date.
func (s *Store) EffectiveDue(id string) (*time.Time, error) {
	var due *time.Time
	err := s.view(func(snap *snapshot) error {
		it, ok := snap.item(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		seen := map[string]bool{}
		for it != nil && !seen[it.ID] {
			seen[it.ID] = true
			if it.Due != nil {
				value := *it.Due
				due = &value
				return nil
			}
			parent, ok := snap.item(it.Parent)
			if !ok {
				break
			}
			it = parent
		}
		return nil
	})
	return due, err
}

// Project returns the project with the exact ID.
func (s *Store) Project(id string) (*Project, error) {
	var found Project
	err := s.view(func(snap *snapshot) error {
		project, ok := snap.project(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
		}
		found = *project
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// Projects returns all projects in store order.
func (s *Store) Projects() ([]Project, error) {
	var projects []Project
	err := s.view(func(snap *snapshot) error {
		projects = snap.projects
		return nil
	})
	return projects, err
}

// ProjectStatus returns the status of a project.
func (s *Store) ProjectStatus(id string) (ProjectStatus, error) {
	project, err := s.Project(id)
	if err != nil {
		return "", err
	}
	return project.Status, nil
}

// SetProjectStatus changes the status of a project.
func (s *Store) SetProjectStatus(id string, status ProjectStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w %q", ErrInvalidProjectStatus, status)
	}
	return s.update(func(snap *snapshot) error {
		project, ok := snap.project(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
		}
		project.Status = status
		project.UpdatedAt = time.Now()
		snap.projectsDirty = true
		return nil
	})
}

// CreateTag creates a tag. Tag names are unique, ignoring case.
func (s *Store) CreateTag(name string) (*Tag, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	var created Tag
	err = s.update(func(snap *snapshot) error {
		for _, existing := range snap.tags {
			if strings.EqualFold(existing.Name, name) {
				return fmt.Errorf("%w: %s", ErrDuplicateTag, name)
			}
		}
		now := time.Now()
		created = Tag{
			ID:        snap.newTagID(name, now),
			Name:      name,
			CreatedAt: now,
		}
		snap.tags = append(snap.tags, created)
		snap.tagsDirty = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// EnsureTag returns the tag named name, creating it when no tag has that
// name. created reports whether a new tag was made.
func (s *Store) EnsureTag(name string) (tag *Tag, created bool, err error) {
	tag, err = s.ResolveTag(name)
	if err == nil {
		return tag, false, nil
	}
	if !errors.Is(err, ErrTagNotFound) {
		return nil, false, err
	}
	tag, err = s.CreateTag(name)
	if err != nil {
		return nil, false, err
	}
	return tag, true, nil
}

// Tags returns all tags in store order.
func (s *Store) Tags() ([]Tag, error) {
	var tags []Tag
	err := s.view(func(snap *snapshot) error {
		tags = snap.tags
		return nil
	})
	return tags, err
}

// Tag returns the tag with the exact ID.
func (s *Store) Tag(id string) (*Tag, error) {
	var found Tag
	err := s.view(func(snap *snapshot) error {
		tag, ok := snap.tag(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrTagNotFound, id)
		}
		found = *tag
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// TagExists reports whether a tag with the exact ID exists.
func (s *Store) TagExists(id string) (bool, error) {
	var exists bool
	err := s.view(func(snap *snapshot) error {
		_, exists = snap.tag(id)
		return nil
	})
	return exists, err
}

// ResolveTag finds a tag by exact ID or by case-insensitive name.
func (s *Store) ResolveTag(ref string) (*Tag, error) {
	ref = strings.TrimSpace(ref)
	var found *Tag
	err := s.view(func(snap *snapshot) error {
		if tag, ok := snap.tag(ref); ok {
			found = tag
			return nil
		}
		for i := range snap.tags {
			if strings.EqualFold(snap.tags[i].Name, ref) {
				found = &snap.tags[i]
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrTagNotFound, ref)
	})
	if err != nil {
		return nil, err
	}
	tag := *found
	return &tag, nil
}
