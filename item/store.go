package item

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

const (
	// ItemsFile is the name of the JSONL file containing items.
	ItemsFile = "items.jsonl"

	// ProjectsFile is the name of the JSONL file containing projects.
	ProjectsFile = "projects.jsonl"

	// TagsFile is the name of the JSONL file containing tags.
	TagsFile = "tags.jsonl"

	lockFile = "store.lock"

	maxJSONLineBytes = 1024 * 1024
)

// Store provides access to the items, projects and tags in a directory.
type Store struct {
	dir string
}

// Open opens the store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("item store directory is not configured")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// snapshot is the full store contents for one locked operation.
type snapshot struct {
	items    []Item
	projects []Project
	tags     []Tag

	itemsDirty    bool
	projectsDirty bool
	tagsDirty     bool
}

func (snap *snapshot) item(id string) (*Item, bool) {
	for i := range snap.items {
		if snap.items[i].ID == id {
			return &snap.items[i], true
		}
	}
	return nil, false
}

func (snap *snapshot) project(id string) (*Project, bool) {
	for i := range snap.projects {
		if snap.projects[i].ID == id {
			return &snap.projects[i], true
		}
	}
	return nil, false
}

func (snap *snapshot) tag(id string) (*Tag, bool) {
	for i := range snap.tags {
		if snap.tags[i].ID == id {
			return &snap.tags[i], true
		}
	}
	return nil, false
}

// view runs fn against the current contents under the store lock.
func (s *Store) view(fn func(snap *snapshot) error) error {
	return s.withLock(func() error {
		snap, err := s.load()
		if err != nil {
			return err
		}
		return fn(snap)
	})
}

// update runs fn against the current contents under the store lock and
// writes back whichever collections fn marked dirty.
func (s *Store) update(fn func(snap *snapshot) error) error {
	return s.withLock(func() error {
		snap, err := s.load()
		if err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
		if snap.itemsDirty {
			if err := writeJSONL(s.path(ItemsFile), snap.items); err != nil {
				return fmt.Errorf("write items: %w", err)
			}
		}
		if snap.projectsDirty {
			if err := writeJSONL(s.path(ProjectsFile), snap.projects); err != nil {
				return fmt.Errorf("write projects: %w", err)
			}
		}
		if snap.tagsDirty {
			if err := writeJSONL(s.path(TagsFile), snap.tags); err != nil {
				return fmt.Errorf("write tags: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) load() (*snapshot, error) {
	items, err := readJSONL[Item](s.path(ItemsFile))
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	projects, err := readJSONL[Project](s.path(ProjectsFile))
	if err != nil {
		return nil, fmt.Errorf("read projects: %w", err)
	}
	tags, err := readJSONL[Tag](s.path(TagsFile))
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}
	return &snapshot{items: items, projects: projects, tags: tags}, nil
}

func (s *Store) path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// withLock executes fn while holding an exclusive lock on the store lock file.
func (s *Store) withLock(fn func() error) error {
	f, err := os.OpenFile(s.path(lockFile), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return fn()
}

// readJSONL reads all JSON objects from a JSONL file into a slice.
func readJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return readJSONLFromReader[T](f)
}

func readJSONLFromReader[T any](reader io.Reader) ([]T, error) {
	var items []T
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLineBytes)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", lineNum, err)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return items, nil
}

// writeJSONL writes a slice of items to a JSONL file, overwriting any existing content.
func writeJSONL[T any](path string, items []T) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	encoder := json.NewEncoder(f)
	for i, item := range items {
		if err := encoder.Encode(item); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("encode item %d: %w", i, err)
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
