package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"shipgate/internal/override"
	"shipgate/internal/temporal"
)

// MemStore is an in-memory Store for tests and --db "" runs. Values are
// cloned through JSON on the way in and out, like a real store would.
type MemStore struct {
	mu        sync.Mutex
	temporal  map[string]*temporal.Record
	overrides []*override.Override
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{temporal: make(map[string]*temporal.Record)}
}

func clone[T any](in T, out *T) error {
	blob, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("memstore clone: %w", err)
	}
	return json.Unmarshal(blob, out)
}

// LoadTemporal returns a deep copy of the stored temporal records.
func (m *MemStore) LoadTemporal() (map[string]*temporal.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*temporal.Record, len(m.temporal))
	if err := clone(m.temporal, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return out, nil
}

// SaveTemporal stores a deep copy of the given records.
func (m *MemStore) SaveTemporal(records map[string]*temporal.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make(map[string]*temporal.Record, len(records))
	if err := clone(records, &stored); err != nil {
		return err
	}
	m.temporal = stored
	return nil
}

// LoadOverrides returns a deep copy of the stored overrides in order.
func (m *MemStore) LoadOverrides() ([]*override.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*override.Override
	if err := clone(m.overrides, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return out, nil
}

// SaveOverrides stores a deep copy of the registry order.
func (m *MemStore) SaveOverrides(overrides []*override.Override) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored []*override.Override
	if err := clone(overrides, &stored); err != nil {
		return err
	}
	m.overrides = stored
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error { return nil }
