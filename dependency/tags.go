package dependency

import (
	"context"
	"errors"
	"fmt"

	"github.com/amonks/prereq/item"
	"github.com/amonks/prereq/prefs"
)

// Role is one of the three tags the engine maintains.
type Role string

const (
	// RoleMarker tags the single item awaiting a link.
	RoleMarker Role = "marker"
	// RolePrerequisite tags items other items wait on.
	RolePrerequisite Role = "prerequisite"
	// RoleDependant tags items waiting on at least one prerequisite.
	RoleDependant Role = "dependant"
)

// Roles returns every role in setup order.
func Roles() []Role {
	return []Role{RoleMarker, RolePrerequisite, RoleDependant}
}

// PrefKey returns the prefs key holding the role's tag ID.
func (r Role) PrefKey() string {
	return string(r) + "TagID"
}

// ParseRole parses a role name.
func ParseRole(value string) (Role, error) {
	for _, role := range Roles() {
		if string(role) == value {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown tag role %q", value)
}

// Resolution is the result of looking up a role's tag.
type Resolution struct {
	tagID string
}

// Configured returns a resolution naming tagID.
func Configured(tagID string) Resolution {
	return Resolution{tagID: tagID}
}

// NeedsSetup is the resolution for a role with no usable tag.
var NeedsSetup = Resolution{}

// TagID returns the configured tag ID and whether one is set.
func (r Resolution) TagID() (string, bool) {
	return r.tagID, r.tagID != ""
}

// SetupFlow asks the user which tag to use for a role. It returns the
// chosen tag ID, or ErrSetupCancelled when the user declines.
type SetupFlow interface {
	Setup(ctx context.Context, role Role) (tagID string, err error)
}

// SetupFunc adapts a function to SetupFlow.
type SetupFunc func(ctx context.Context, role Role) (string, error)

// Setup implements SetupFlow.
func (f SetupFunc) Setup(ctx context.Context, role Role) (string, error) {
	return f(ctx, role)
}

// TagChecker reports whether a tag still exists.
type TagChecker interface {
	TagExists(tagID string) (bool, error)
}

// RoleTags holds the tag ID for every role.
type RoleTags struct {
	Marker       string
	Prerequisite string
	Dependant    string
}

// TagResolver maps roles to configured tag IDs.
type TagResolver struct {
	store prefs.Store
	tags  TagChecker
	setup SetupFlow
}

// NewTagResolver returns a resolver reading role tags from store. setup may be nil.
func NewTagResolver(store prefs.Store, tags TagChecker, setup SetupFlow) *TagResolver {
	return &TagResolver{store: store, tags: tags, setup: setup}
}

// Lookup returns the role's configured tag without running setup. A tag ID
// that no longer exists in the item store needs setup again.
func (r *TagResolver) Lookup(ctx context.Context, role Role) (Resolution, error) {
	var tagID string
	ok, err := prefs.ReadJSON(ctx, r.store, role.PrefKey(), &tagID)
	if err != nil {
		return NeedsSetup, fmt.Errorf("read %s tag: %w", role, err)
	}
	if !ok || tagID == "" {
		return NeedsSetup, nil
	}
	exists, err := r.tags.TagExists(tagID)
	if err != nil {
		return NeedsSetup, err
	}
	if !exists {
		return NeedsSetup, nil
	}
	return Configured(tagID), nil
}

// Resolve returns the role's tag ID. When the role needs setup it runs the
// setup flow once, stores its answer and looks the role up again.
func (r *TagResolver) Resolve(ctx context.Context, role Role) (string, error) {
	resolution, err := r.Lookup(ctx, role)
	if err != nil {
		return "", err
	}
	if tagID, ok := resolution.TagID(); ok {
		return tagID, nil
	}

	op := "resolve " + string(role) + " tag"
	if r.setup == nil {
		return "", precondition(op, ErrTagNotConfigured)
	}
	chosen, err := r.setup.Setup(ctx, role)
	if errors.Is(err, ErrSetupCancelled) {
		return "", precondition(op, fmt.Errorf("%w: %w", ErrTagNotConfigured, err))
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if chosen != "" {
		if err := r.Configure(ctx, role, chosen); err != nil {
			return "", err
		}
	}

	resolution, err = r.Lookup(ctx, role)
	if err != nil {
		return "", err
	}
	if tagID, ok := resolution.TagID(); ok {
		return tagID, nil
	}
	return "", precondition(op, ErrTagNotConfigured)
}

// ResolveAll resolves every role.
func (r *TagResolver) ResolveAll(ctx context.Context) (RoleTags, error) {
	var tags RoleTags
	for _, role := range Roles() {
		tagID, err := r.Resolve(ctx, role)
		if err != nil {
			return RoleTags{}, err
		}
		switch role {
		case RoleMarker:
			tags.Marker = tagID
		case RolePrerequisite:
			tags.Prerequisite = tagID
		case RoleDependant:
			tags.Dependant = tagID
		}
	}
	return tags, nil
}

// Configure stores tagID for role. The tag must exist.
func (r *TagResolver) Configure(ctx context.Context, role Role, tagID string) error {
	exists, err := r.tags.TagExists(tagID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("configure %s tag: %w: %s", role, item.ErrTagNotFound, tagID)
	}
	return prefs.WriteJSON(ctx, r.store, role.PrefKey(), tagID)
}
