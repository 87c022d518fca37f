package dependency

import (
	"errors"
	"fmt"
)

var (
	// ErrSelfLink is returned when an item would be linked to itself.
	ErrSelfLink = errors.New("item cannot be its own prerequisite")

	// ErrDuplicateLink is returned when the link already exists.
	ErrDuplicateLink = errors.New("link already exists")

	// ErrInvalidSelection is returned when the selection is not exactly one item or one project.
	ErrInvalidSelection = errors.New("select exactly one item or one project")

	// ErrSelectionNotEmpty is returned by actions that only run with nothing selected.
	ErrSelectionNotEmpty = errors.New("selection must be empty")

	// ErrNoPendingLink is returned when no item carries the marker tag.
	ErrNoPendingLink = errors.New("no item is marked as a pending prerequisite")

	// ErrMultiplePendingLinks is returned when more than one item carries the marker tag.
	ErrMultiplePendingLinks = errors.New("more than one item is marked as a pending prerequisite")

	// ErrTagNotConfigured is returned when a role tag is unset after setup.
	ErrTagNotConfigured = errors.New("tag is not configured")

	// ErrSetupCancelled is returned by a SetupFlow the user abandoned.
	ErrSetupCancelled = errors.New("tag setup cancelled")

	// ErrMalformedLink is returned when a stored link is not a pair of IDs.
	ErrMalformedLink = errors.New("malformed link record")
)

// PreconditionError reports an invocation that was rejected before any
// mutation took place.
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

func precondition(op string, err error) error {
	var existing *PreconditionError
	if errors.As(err, &existing) {
		return err
	}
	return &PreconditionError{Op: op, Err: err}
}

// IsPrecondition reports whether err is, or wraps, a PreconditionError.
func IsPrecondition(err error) bool {
	var target *PreconditionError
	return errors.As(err, &target)
}
