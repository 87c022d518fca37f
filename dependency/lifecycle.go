package dependency

import (
	"context"
	"errors"
	"fmt"

	"github.com/amonks/prereq/internal/logging"
	"github.com/amonks/prereq/item"
	"go.uber.org/zap"
)

// CreateLink makes dependantID wait on prerequisiteID.
//
// Both items are tagged, the dependant's project is put on hold, each note
// gains a line pointing at the other item, the link is stored, and the
// prerequisite loses the marker tag. Links then cascade into the
// dependant's children: only the first child of a sequential group, every
// child of a parallel one. A child already linked to the prerequisite is
// left as it is, and the cascade carries on into its children.
//
// Self links, missing items, duplicate links and unconfigured tags are
// rejected with a PreconditionError before anything is changed.
func (e *Engine) CreateLink(ctx context.Context, prerequisiteID, dependantID string) error {
	const op = "create link"
	if prerequisiteID == dependantID {
		return precondition(op, fmt.Errorf("%w: %s", ErrSelfLink, prerequisiteID))
	}
	if _, err := e.host.Item(prerequisiteID); err != nil {
		return e.endpointError(op, err)
	}
	if _, err := e.host.Item(dependantID); err != nil {
		return e.endpointError(op, err)
	}
	exists, err := e.links.Contains(ctx, Link{PrerequisiteID: prerequisiteID, DependantID: dependantID})
	if err != nil {
		return err
	}
	if exists {
		return precondition(op, fmt.Errorf("%w: %s -> %s", ErrDuplicateLink, prerequisiteID, dependantID))
	}

	tags, err := e.tags.ResolveAll(ctx)
	if err != nil {
		return err
	}
	return e.link(ctx, tags, prerequisiteID, dependantID)
}

func (e *Engine) endpointError(op string, err error) error {
	if errors.Is(err, item.ErrItemNotFound) {
		return precondition(op, err)
	}
	return err
}

func (e *Engine) link(ctx context.Context, tags RoleTags, prerequisiteID, dependantID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prerequisite, err := e.host.Item(prerequisiteID)
	if err != nil {
		return err
	}
	dependant, err := e.host.Item(dependantID)
	if err != nil {
		return err
	}

	if err := e.host.AddTag(dependant.ID, tags.Dependant); err != nil {
		return fmt.Errorf("tag dependant: %w", err)
	}
	if err := e.host.AddTag(prerequisite.ID, tags.Prerequisite); err != nil {
		return fmt.Errorf("tag prerequisite: %w", err)
	}

	if dependant.Project != "" {
		if err := e.transitionProject(dependant.Project, item.ProjectActive, item.ProjectOnHold); err != nil {
			return err
		}
	}

	dependantNote := prependAnnotation(dependant.Note, annotation(labelPrerequisite, e.scheme, prerequisite.ID, prerequisite.Name))
	if err := e.host.SetNote(dependant.ID, dependantNote); err != nil {
		return fmt.Errorf("annotate dependant: %w", err)
	}
	prerequisiteNote := prependAnnotation(prerequisite.Note, annotation(labelDependant, e.scheme, dependant.ID, dependant.Name))
	if err := e.host.SetNote(prerequisite.ID, prerequisiteNote); err != nil {
		return fmt.Errorf("annotate prerequisite: %w", err)
	}

	if _, err := e.links.Add(ctx, Link{PrerequisiteID: prerequisite.ID, DependantID: dependant.ID}); err != nil {
		return err
	}

	if err := e.host.RemoveTag(prerequisite.ID, tags.Marker); err != nil {
		return fmt.Errorf("clear marker: %w", err)
	}

	e.logger.Info("linked",
		zap.String(logging.FieldPrerequisite, prerequisite.ID),
		zap.String(logging.FieldDependant, dependant.ID),
	)

	return e.cascadeLink(ctx, tags, prerequisite.ID, dependant)
}

// cascadeLink links prerequisiteID to parent's cascade targets. A child
// that already carries the link is not linked again, but the cascade still
// descends into its own children.
func (e *Engine) cascadeLink(ctx context.Context, tags RoleTags, prerequisiteID string, parent *item.Item) error {
	for _, childID := range cascadeTargets(parent) {
		if childID == prerequisiteID {
			continue
		}
		exists, err := e.links.Contains(ctx, Link{PrerequisiteID: prerequisiteID, DependantID: childID})
		if err != nil {
			return err
		}
		if !exists {
			if err := e.link(ctx, tags, prerequisiteID, childID); err != nil {
				return fmt.Errorf("cascade to %s: %w", childID, err)
			}
			continue
		}
		child, err := e.host.Item(childID)
		if err != nil {
			return fmt.Errorf("cascade to %s: %w", childID, err)
		}
		if err := e.cascadeLink(ctx, tags, prerequisiteID, child); err != nil {
			return err
		}
	}
	return nil
}

// RemoveLink undoes CreateLink for the pair, including its cascade into
// the dependant's children.
//
// The stored link is removed first. An endpoint that no longer exists is
// skipped. A role tag is only removed once the item has no remaining links
// in that role, and the dependant's project is reactivated once nothing
// holds it. Removing a link that does not exist changes nothing.
func (e *Engine) RemoveLink(ctx context.Context, prerequisiteID, dependantID string) error {
	tags, err := e.tags.ResolveAll(ctx)
	if err != nil {
		return err
	}
	return e.unlink(ctx, tags, prerequisiteID, dependantID)
}

func (e *Engine) unlink(ctx context.Context, tags RoleTags, prerequisiteID, dependantID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	removed, err := e.links.Remove(ctx, Link{PrerequisiteID: prerequisiteID, DependantID: dependantID})
	if err != nil {
		return err
	}

	if err := e.detachPrerequisite(ctx, tags, prerequisiteID, dependantID); err != nil {
		return err
	}
	dependant, err := e.detachDependant(ctx, tags, prerequisiteID, dependantID)
	if err != nil {
		return err
	}

	if removed {
		e.logger.Info("unlinked",
			zap.String(logging.FieldPrerequisite, prerequisiteID),
			zap.String(logging.FieldDependant, dependantID),
		)
	}

	if dependant == nil {
		return nil
	}
	for _, childID := range cascadeTargets(dependant) {
		if childID == prerequisiteID {
			continue
		}
		if err := e.unlink(ctx, tags, prerequisiteID, childID); err != nil {
			return fmt.Errorf("cascade to %s: %w", childID, err)
		}
	}
	return nil
}

func (e *Engine) detachPrerequisite(ctx context.Context, tags RoleTags, prerequisiteID, dependantID string) error {
	prerequisite, err := e.lookupEndpoint(prerequisiteID, logging.FieldPrerequisite)
	if err != nil || prerequisite == nil {
		return err
	}

	if note, ok := stripAnnotation(prerequisite.Note, labelDependant, e.scheme, dependantID); ok {
		if err := e.host.SetNote(prerequisite.ID, note); err != nil {
			return fmt.Errorf("strip prerequisite note: %w", err)
		}
	}

	remaining, err := e.links.DependantsOf(ctx, prerequisite.ID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 && prerequisite.HasTag(tags.Prerequisite) {
		if err := e.host.RemoveTag(prerequisite.ID, tags.Prerequisite); err != nil {
			return fmt.Errorf("untag prerequisite: %w", err)
		}
	}
	return nil
}

func (e *Engine) detachDependant(ctx context.Context, tags RoleTags, prerequisiteID, dependantID string) (*item.Item, error) {
	dependant, err := e.lookupEndpoint(dependantID, logging.FieldDependant)
	if err != nil || dependant == nil {
		return nil, err
	}

	if note, ok := stripAnnotation(dependant.Note, labelPrerequisite, e.scheme, prerequisiteID); ok {
		if err := e.host.SetNote(dependant.ID, note); err != nil {
			return nil, fmt.Errorf("strip dependant note: %w", err)
		}
	}

	remaining, err := e.links.PrerequisitesOf(ctx, dependant.ID)
	if err != nil {
		return nil, err
	}
	if len(remaining) > 0 {
		return dependant, nil
	}
	if dependant.HasTag(tags.Dependant) {
		if err := e.host.RemoveTag(dependant.ID, tags.Dependant); err != nil {
			return nil, fmt.Errorf("untag dependant: %w", err)
		}
	}
	if dependant.Project != "" {
		if err := e.transitionProject(dependant.Project, item.ProjectOnHold, item.ProjectActive); err != nil {
			return nil, err
		}
	}
	return dependant, nil
}

// lookupEndpoint returns nil without error when the item is gone.
func (e *Engine) lookupEndpoint(id, field string) (*item.Item, error) {
	it, err := e.host.Item(id)
	if errors.Is(err, item.ErrItemNotFound) {
		e.logger.Debug("endpoint missing, skipping", zap.String(field, id))
		return nil, nil
	}
	return it, err
}

// transitionProject moves a project from one status to another, leaving
// projects in any other status alone.
func (e *Engine) transitionProject(projectID string, from, to item.ProjectStatus) error {
	status, err := e.host.ProjectStatus(projectID)
	if errors.Is(err, item.ErrProjectNotFound) {
		e.logger.Debug("project missing, skipping", zap.String(logging.FieldProject, projectID))
		return nil
	}
	if err != nil {
		return err
	}
	if status != from {
		return nil
	}
	if err := e.host.SetProjectStatus(projectID, to); err != nil {
		return fmt.Errorf("set project %s %s: %w", projectID, to, err)
	}
	return nil
}
