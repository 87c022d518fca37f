// Package dependency links items in a task store that has no native notion
// of prerequisites.
//
// A link is an ordered (prerequisite, dependant) pair. The link store in
// prefs is the only source of truth; the role tags on each item and the
// cross-reference lines in each item's note are derived from it and kept in
// step by CreateLink and RemoveLink.
//
// The public API mirrors the user-facing actions:
//   - MarkPending, CreateLinkFromSelection, CreateLink for building links
//   - RemoveLink and Sweep for tearing them down
//   - Propagate for pulling dependants' due dates onto prerequisites
//
// The engine holds no locks. Callers must run one operation at a time
// against a given item store.
package dependency

import (
	"time"

	"github.com/amonks/prereq/item"
	"github.com/amonks/prereq/prefs"
	"go.uber.org/zap"
)

// DefaultScheme is the deep-link prefix written in note annotations.
const DefaultScheme = "omnifocus:///task/"

// Host is the item store the engine operates on.
type Host interface {
	// Item returns the item with the exact ID, or an error wrapping
	// item.ErrItemNotFound.
	Item(id string) (*item.Item, error)

	AddTag(id, tagID string) error
	RemoveTag(id, tagID string) error
	SetNote(id, note string) error
	SetDue(id string, due *time.Time) error

	// EffectiveDue returns the due date the item is scheduled by,
	// including dates inherited from its ancestors.
	EffectiveDue(id string) (*time.Time, error)

	// Project returns the project with the exact ID, or an error wrapping
	// item.ErrProjectNotFound.
	Project(id string) (*item.Project, error)
	ProjectStatus(id string) (item.ProjectStatus, error)
	SetProjectStatus(id string, status item.ProjectStatus) error

	// TaggedWith returns every item carrying the tag.
	TaggedWith(tagID string) ([]item.Item, error)
	TagExists(tagID string) (bool, error)
}

// Options configures an Engine.
type Options struct {
	// Scheme is the deep-link prefix for note annotations. Defaults to DefaultScheme.
	Scheme string

	// Setup runs when a role tag is not configured. Nil means
	// unconfigured roles fail immediately.
	Setup SetupFlow

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Engine creates, removes and maintains links.
type Engine struct {
	host   Host
	links  *LinkStore
	tags   *TagResolver
	scheme string
	logger *zap.Logger
}

// New returns an engine over host, persisting links and tag roles in store.
func New(host Host, store prefs.Store, opts Options) *Engine {
	if opts.Scheme == "" {
		opts.Scheme = DefaultScheme
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		host:   host,
		links:  NewLinkStore(store),
		tags:   NewTagResolver(store, host, opts.Setup),
		scheme: opts.Scheme,
		logger: opts.Logger,
	}
}

// Links returns the engine's link store.
func (e *Engine) Links() *LinkStore {
	return e.links
}

// Tags returns the engine's tag resolver.
func (e *Engine) Tags() *TagResolver {
	return e.tags
}

// cascadeTargets returns the children a link on it propagates to: the
// first child of a sequential group, or every child of a parallel one.
func cascadeTargets(it *item.Item) []string {
	if !it.HasChildren() {
		return nil
	}
	if it.Sequential {
		return it.Children[:1]
	}
	return it.Children
}
