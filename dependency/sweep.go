package dependency

import (
	"context"
	"errors"
	"fmt"

	"github.com/amonks/prereq/internal/logging"
	"github.com/amonks/prereq/item"
	"go.uber.org/zap"
)

// SweepResult reports what a sweep did.
type SweepResult struct {
	// Removed holds the stale links that were removed.
	Removed []Link

	// Kept is the number of links left once the sweep finished. Removing a
	// stale link also removes its cascade into the dependant's children, so
	// this can be less than the number of links that were live.
	Kept int
}

// Sweep removes every link whose prerequisite or dependant no longer
// exists, or has been completed or dropped. Each stale link is removed with
// RemoveLink semantics, so tags, notes and project status are restored on
// whichever endpoint still exists.
//
// A failure removing one link does not stop the sweep; all failures are
// returned together.
func (e *Engine) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	links, err := e.links.All(ctx)
	if err != nil {
		return result, err
	}

	var stale []Link
	for _, link := range links {
		dead, err := e.isStale(link)
		if err != nil {
			return result, err
		}
		if dead {
			stale = append(stale, link)
		} else {
			result.Kept++
		}
	}
	if len(stale) == 0 {
		return result, nil
	}

	tags, err := e.tags.ResolveAll(ctx)
	if err != nil {
		return result, err
	}

	var errs []error
	for _, link := range stale {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := e.unlink(ctx, tags, link.PrerequisiteID, link.DependantID); err != nil {
			errs = append(errs, fmt.Errorf("remove %s -> %s: %w", link.PrerequisiteID, link.DependantID, err))
			continue
		}
		result.Removed = append(result.Removed, link)
	}

	remaining, err := e.links.All(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		result.Kept = len(remaining)
	}

	e.logger.Info("swept",
		zap.Int(logging.FieldCount, len(result.Removed)),
	)
	return result, errors.Join(errs...)
}

func (e *Engine) isStale(link Link) (bool, error) {
	for _, id := range []string{link.PrerequisiteID, link.DependantID} {
		it, err := e.host.Item(id)
		if errors.Is(err, item.ErrItemNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if it.Status.IsResolved() {
			return true, nil
		}
	}
	return false, nil
}
