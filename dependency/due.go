package dependency

import (
	"context"
	"errors"
	"time"

	"github.com/amonks/prereq/internal/logging"
	"github.com/amonks/prereq/item"
	"go.uber.org/zap"
)

// DueChange records one due date written by Propagate.
type DueChange struct {
	ItemID string

	// Previous is the effective due date before the change, nil when the
	// item had none.
	Previous *time.Time

	Due time.Time
}

// PropagateResult lists the due dates Propagate changed, in the order they
// were written.
type PropagateResult struct {
	Changes []DueChange
}

// Propagate pulls each open prerequisite's due date forward to the
// earliest effective due date among its dependants. Dependants without a
// due date, or that no longer exist, are ignored. A prerequisite is never
// given a later date than it already has.
//
// When the prerequisite's date is pulled forward and it sits in a
// sequential group, every sibling before it gets the same treatment so the
// sequence can still finish on time. A prerequisite already due early
// enough leaves its siblings alone.
func (e *Engine) Propagate(ctx context.Context) (PropagateResult, error) {
	var result PropagateResult

	tagID, err := e.tags.Resolve(ctx, RolePrerequisite)
	if err != nil {
		return result, err
	}
	prerequisites, err := e.host.TaggedWith(tagID)
	if err != nil {
		return result, err
	}

	for _, prerequisite := range prerequisites {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if prerequisite.Status != item.StatusOpen {
			continue
		}

		earliest, err := e.earliestDependantDue(ctx, prerequisite.ID)
		if err != nil {
			return result, err
		}
		if earliest == nil {
			continue
		}

		pulled, err := e.pullDue(prerequisite.ID, *earliest, &result)
		if err != nil {
			return result, err
		}
		if !pulled || prerequisite.Parent == "" {
			continue
		}
		parent, err := e.host.Item(prerequisite.Parent)
		if errors.Is(err, item.ErrItemNotFound) {
			continue
		}
		if err != nil {
			return result, err
		}
		if !parent.Sequential {
			continue
		}
		for _, siblingID := range parent.Children {
			if siblingID == prerequisite.ID {
				break
			}
			if _, err := e.pullDue(siblingID, *earliest, &result); err != nil {
				return result, err
			}
		}
	}
	return result, nil
}

func (e *Engine) earliestDependantDue(ctx context.Context, prerequisiteID string) (*time.Time, error) {
	dependants, err := e.links.DependantsOf(ctx, prerequisiteID)
	if err != nil {
		return nil, err
	}

	var earliest *time.Time
	for _, id := range dependants {
		due, err := e.host.EffectiveDue(id)
		if errors.Is(err, item.ErrItemNotFound) {
			e.logger.Debug("dependant missing, skipping", zap.String(logging.FieldDependant, id))
			continue
		}
		if err != nil {
			return nil, err
		}
		if due != nil && (earliest == nil || due.Before(*earliest)) {
			earliest = due
		}
	}
	return earliest, nil
}

// pullDue sets id's due date to due when it has none or a later one, and
// reports whether it did.
func (e *Engine) pullDue(id string, due time.Time, result *PropagateResult) (bool, error) {
	current, err := e.host.EffectiveDue(id)
	if errors.Is(err, item.ErrItemNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if current != nil && !due.Before(*current) {
		return false, nil
	}

	value := due
	if err := e.host.SetDue(id, &value); err != nil {
		return false, err
	}
	result.Changes = append(result.Changes, DueChange{ItemID: id, Previous: current, Due: due})
	e.logger.Info("due date pulled forward",
		zap.String(logging.FieldItem, id),
		zap.Time(logging.FieldDue, due),
	)
	return true, nil
}
