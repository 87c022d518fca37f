package dependency

import (
	"context"
	"errors"
	"fmt"

	"github.com/amonks/prereq/internal/logging"
	"github.com/amonks/prereq/item"
	"go.uber.org/zap"
)

// Selection is what the user has selected: item IDs, project IDs, or both.
type Selection struct {
	Items    []string
	Projects []string
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return len(s.Items) == 0 && len(s.Projects) == 0
}

// single returns the ID of the one selected item or project root.
func (e *Engine) single(s Selection) (string, error) {
	switch {
	case len(s.Items) == 1 && len(s.Projects) == 0:
		return s.Items[0], nil
	case len(s.Projects) == 1 && len(s.Items) == 0:
		project, err := e.host.Project(s.Projects[0])
		if errors.Is(err, item.ErrProjectNotFound) {
			return "", precondition("select", err)
		}
		if err != nil {
			return "", err
		}
		return project.Root, nil
	default:
		return "", precondition("select", ErrInvalidSelection)
	}
}

// MarkPending tags id with the marker so the next link uses it as the
// prerequisite.
func (e *Engine) MarkPending(ctx context.Context, id string) error {
	if _, err := e.host.Item(id); err != nil {
		return e.endpointError("mark pending", err)
	}
	tagID, err := e.tags.Resolve(ctx, RoleMarker)
	if err != nil {
		return err
	}
	if err := e.host.AddTag(id, tagID); err != nil {
		return err
	}
	e.logger.Debug("marked pending", zap.String(logging.FieldItem, id))
	return nil
}

// Pending returns the one open item carrying the marker tag.
func (e *Engine) Pending(ctx context.Context) (*item.Item, error) {
	tagID, err := e.tags.Resolve(ctx, RoleMarker)
	if err != nil {
		return nil, err
	}
	tagged, err := e.host.TaggedWith(tagID)
	if err != nil {
		return nil, err
	}
	var marked []item.Item
	for _, it := range tagged {
		if !it.Status.IsResolved() {
			marked = append(marked, it)
		}
	}
	switch len(marked) {
	case 0:
		return nil, ErrNoPendingLink
	case 1:
		return &marked[0], nil
	default:
		return nil, fmt.Errorf("%w: %d items", ErrMultiplePendingLinks, len(marked))
	}
}

// pendingError turns a wrong marker count into a PreconditionError. Store
// failures are returned as they are.
func pendingError(op string, err error) error {
	if errors.Is(err, ErrNoPendingLink) || errors.Is(err, ErrMultiplePendingLinks) {
		return precondition(op, err)
	}
	return err
}

// CanCreateLink reports whether CreateLinkFromSelection would run: exactly
// one item or project is selected and exactly one item is marked.
func (e *Engine) CanCreateLink(ctx context.Context, s Selection) error {
	const op = "create link"
	if _, err := e.single(s); err != nil {
		return e.endpointError(op, err)
	}
	if _, err := e.Pending(ctx); err != nil {
		return pendingError(op, err)
	}
	return nil
}

// CreateLinkFromSelection links the marked item as a prerequisite of the
// selected item or project.
func (e *Engine) CreateLinkFromSelection(ctx context.Context, s Selection) (Link, error) {
	const op = "create link"
	dependantID, err := e.single(s)
	if err != nil {
		return Link{}, e.endpointError(op, err)
	}
	pending, err := e.Pending(ctx)
	if err != nil {
		return Link{}, pendingError(op, err)
	}
	link := Link{PrerequisiteID: pending.ID, DependantID: dependantID}
	if err := e.CreateLink(ctx, link.PrerequisiteID, link.DependantID); err != nil {
		return Link{}, err
	}
	return link, nil
}

// CanPropagate reports whether the due-date action may run. It only runs
// with nothing selected.
func CanPropagate(s Selection) error {
	if !s.Empty() {
		return precondition("propagate", ErrSelectionNotEmpty)
	}
	return nil
}

// Dependants returns the items id is a prerequisite for.
func (e *Engine) Dependants(ctx context.Context, id string) ([]string, error) {
	return e.links.DependantsOf(ctx, id)
}

// Prerequisites returns the items id is waiting on.
func (e *Engine) Prerequisites(ctx context.Context, id string) ([]string, error) {
	return e.links.PrerequisitesOf(ctx, id)
}
