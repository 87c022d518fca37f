package item

import (
	"fmt"

	"github.com/amonks/prereq/internal/ids"
)

// IDIndex indexes IDs for prefix matching and display.
type IDIndex struct {
	ids      []string
	notFound error
}

func newIDIndex(values []string, notFound error) IDIndex {
	return IDIndex{ids: ids.NormalizeUniqueIDs(values), notFound: notFound}
}

// Resolve returns the full ID for a prefix.
func (index IDIndex) Resolve(prefix string) (string, error) {
	if prefix == "" {
		return "", index.notFound
	}

	match, found, ambiguous := ids.MatchPrefixNormalized(index.ids, prefix)
	if !found {
		return "", fmt.Errorf("%w: %s", index.notFound, prefix)
	}
	if ambiguous {
		return "", fmt.Errorf("%w: %s", ErrAmbiguousIDPrefix, prefix)
	}

	return match, nil
}

// PrefixLengths returns the shortest unique prefix length for each ID.
func (index IDIndex) PrefixLengths() map[string]int {
	return ids.UniquePrefixLengthsNormalized(index.ids)
}

func itemIndex(items []Item) IDIndex {
	values := make([]string, 0, len(items))
	for _, it := range items {
		values = append(values, it.ID)
	}
	return newIDIndex(values, ErrItemNotFound)
}

func projectIndex(projects []Project) IDIndex {
	values := make([]string, 0, len(projects))
	for _, p := range projects {
		values = append(values, p.ID)
	}
	return newIDIndex(values, ErrProjectNotFound)
}

// IDIndex returns an index of all item IDs in the store.
func (s *Store) IDIndex() (IDIndex, error) {
	var index IDIndex
	err := s.view(func(snap *snapshot) error {
		index = itemIndex(snap.items)
		return nil
	})
	return index, err
}

// ResolveItemID expands an item ID prefix to a full ID.
func (s *Store) ResolveItemID(prefix string) (string, error) {
	index, err := s.IDIndex()
	if err != nil {
		return "", err
	}
	return index.Resolve(prefix)
}

// ResolveProjectID expands a project ID prefix to a full ID.
func (s *Store) ResolveProjectID(prefix string) (string, error) {
	var resolved string
	err := s.view(func(snap *snapshot) error {
		var err error
		resolved, err = projectIndex(snap.projects).Resolve(prefix)
		return err
	})
	return resolved, err
}
