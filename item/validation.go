package item

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyName is returned when a name is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrNameTooLong is returned when a name exceeds MaxNameLength.
	ErrNameTooLong = errors.New("name exceeds maximum length")

	// ErrInvalidStatus is returned when an invalid status is provided.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidProjectStatus is returned when an invalid project status is provided.
	ErrInvalidProjectStatus = errors.New("invalid project status")

	// ErrItemNotFound is returned when an item with the given ID doesn't exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrProjectNotFound is returned when a project with the given ID doesn't exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrTagNotFound is returned when a tag with the given ID or name doesn't exist.
	ErrTagNotFound = errors.New("tag not found")

	// ErrDuplicateTag is returned when a tag name is already in use.
	ErrDuplicateTag = errors.New("tag already exists")

	// ErrAmbiguousIDPrefix is returned when an ID prefix matches multiple records.
	ErrAmbiguousIDPrefix = errors.New("ambiguous ID prefix")

	// ErrParentIsDescendant is returned when a move would create a cycle.
	ErrParentIsDescendant = errors.New("parent cannot be the item or one of its descendants")
)

// NormalizeName collapses whitespace so names stay on one line, then
// validates the result.
func NormalizeName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return "", fmt.Errorf("%w: %d > %d", ErrNameTooLong, len(name), MaxNameLength)
	}
	return name, nil
}

// ParseStatus normalizes and validates a status string.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w %q: must be %s", ErrInvalidStatus, value, statusList())
	}
	return status, nil
}

// ParseProjectStatus normalizes and validates a project status string.
// "on-hold" is accepted as an alias.
func ParseProjectStatus(value string) (ProjectStatus, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
	status := ProjectStatus(normalized)
	if !status.IsValid() {
		return "", fmt.Errorf("%w %q", ErrInvalidProjectStatus, value)
	}
	return status, nil
}

func statusList() string {
	values := make([]string, 0, len(ValidStatuses()))
	for _, status := range ValidStatuses() {
		values = append(values, string(status))
	}
	return strings.Join(values, ", ")
}
