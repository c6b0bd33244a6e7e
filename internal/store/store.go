// Package store persists the two pieces of cross-run state the gate
// engine owns: temporal finding records and the override registry. The
// engine uses only the Store interface; the implementation is SQLite or
// in-memory.
package store

import (
	"errors"

	"shipgate/internal/override"
	"shipgate/internal/temporal"
)

// DefaultDBPath is the default relative path for the SQLite DB.
// Open() creates the parent dir (e.g. .shipgate).
const DefaultDBPath = ".shipgate/shipgate.db"

// ErrStorageUnavailable marks a store that could not be read. Callers
// recover locally by starting from empty state; aggregation proceeds.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Store is the persistence facade for cross-run state.
type Store interface {
	// Temporal finding history, keyed by fingerprint.
	LoadTemporal() (map[string]*temporal.Record, error)
	SaveTemporal(map[string]*temporal.Record) error

	// Override records, in registration order.
	LoadOverrides() ([]*override.Override, error)
	SaveOverrides([]*override.Override) error

	Close() error
}
