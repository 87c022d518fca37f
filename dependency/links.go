package dependency

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/amonks/prereq/prefs"
)

// LinksKey is the prefs key holding the link list.
const LinksKey = "links"

// Link is a persisted (prerequisite, dependant) pair. It is stored as a
// two-element JSON array.
type Link struct {
	PrerequisiteID string
	DependantID    string
}

// MarshalJSON implements json.Marshaler.
func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{l.PrerequisiteID, l.DependantID})
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Link) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedLink, err)
	}
	if len(pair) != 2 || pair[0] == "" || pair[1] == "" {
		return fmt.Errorf("%w: %s", ErrMalformedLink, data)
	}
	l.PrerequisiteID, l.DependantID = pair[0], pair[1]
	return nil
}

// LinkStore is the durable list of links. Each mutation is a
// read-modify-write of the whole list with no concurrency control.
type LinkStore struct {
	store prefs.Store
}

// NewLinkStore returns a link store persisting to store.
func NewLinkStore(store prefs.Store) *LinkStore {
	return &LinkStore{store: store}
}

// All returns every link in insertion order.
func (s *LinkStore) All(ctx context.Context) ([]Link, error) {
	var links []Link
	if _, err := prefs.ReadJSON(ctx, s.store, LinksKey, &links); err != nil {
		return nil, fmt.Errorf("read links: %w", err)
	}
	return links, nil
}

func (s *LinkStore) save(ctx context.Context, links []Link) error {
	if links == nil {
		links = []Link{}
	}
	if err := prefs.WriteJSON(ctx, s.store, LinksKey, links); err != nil {
		return fmt.Errorf("write links: %w", err)
	}
	return nil
}

// Contains reports whether the exact link is stored.
func (s *LinkStore) Contains(ctx context.Context, link Link) (bool, error) {
	links, err := s.All(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(links, link), nil
}

// Add appends link. It returns false without writing when the pair is
// already stored.
func (s *LinkStore) Add(ctx context.Context, link Link) (bool, error) {
	links, err := s.All(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(links, link) {
		return false, nil
	}
	return true, s.save(ctx, append(links, link))
}

// Remove deletes the exact pair. It returns false without writing when the
// pair is not stored.
func (s *LinkStore) Remove(ctx context.Context, link Link) (bool, error) {
	links, err := s.All(ctx)
	if err != nil {
		return false, err
	}
	remaining := slices.DeleteFunc(slices.Clone(links), func(existing Link) bool {
		return existing == link
	})
	if len(remaining) == len(links) {
		return false, nil
	}
	return true, s.save(ctx, remaining)
}

// DependantsOf returns the IDs id is a prerequisite for.
func (s *LinkStore) DependantsOf(ctx context.Context, id string) ([]string, error) {
	links, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var dependants []string
	for _, link := range links {
		if link.PrerequisiteID == id {
			dependants = append(dependants, link.DependantID)
		}
	}
	return dependants, nil
}

// PrerequisitesOf returns the IDs id is waiting on.
func (s *LinkStore) PrerequisitesOf(ctx context.Context, id string) ([]string, error) {
	links, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var prerequisites []string
	for _, link := range links {
		if link.DependantID == id {
			prerequisites = append(prerequisites, link.PrerequisiteID)
		}
	}
	return prerequisites, nil
}
