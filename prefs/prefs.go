// Package prefs stores small named values durably.
//
// Values are JSON documents addressed by string keys. The dependency engine
// keeps its link records and tag-role configuration here. Two backends are
// provided: a single JSON file guarded by flock, and a SQLite table.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrInvalidValue is returned when a value is not a JSON document.
var ErrInvalidValue = errors.New("value is not valid JSON")

// Store reads and writes keyed values.
type Store interface {
	// Read returns the value for key. ok is false when the key is unset.
	Read(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Write replaces the value for key.
	Write(ctx context.Context, key string, value []byte) error
}

// Backend is a Store that holds resources until closed.
type Backend interface {
	Store
	io.Closer
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open opens the named backend at path.
func Open(backend, path string) (Backend, error) {
	switch backend {
	case BackendFile:
		return NewFileStore(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown prefs backend %q", backend)
	}
}

// ReadJSON decodes the value for key into dst.
func ReadJSON(ctx context.Context, store Store, key string, dst any) (bool, error) {
	data, ok, err := store.Read(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// WriteJSON encodes value and stores it under key.
func WriteJSON(ctx context.Context, store Store, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Write(ctx, key, data)
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Read implements Store.
func (m *Memory) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Write implements Store.
func (m *Memory) Write(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("%w: %s", ErrInvalidValue, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// Close implements io.Closer.
func (m *Memory) Close() error {
	return nil
}
