package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"shipgate/internal/override"
	"shipgate/internal/temporal"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = schemaVersionV1

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .shipgate) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		// Fresh database.
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create v1 schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersionV1); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", v, currentSchemaVersion)
	}
	return nil
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

// LoadTemporal reads every temporal record. A read or decode failure wraps
// ErrStorageUnavailable so the tracker can fall back to empty state.
func (s *SqlStore) LoadTemporal() (map[string]*temporal.Record, error) {
	rows, err := s.db.Query("SELECT fingerprint, record FROM temporal_findings")
	if err != nil {
		return nil, fmt.Errorf("%w: query temporal: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	out := make(map[string]*temporal.Record)
	for rows.Next() {
		var fp, blob string
		if err := rows.Scan(&fp, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan temporal: %v", ErrStorageUnavailable, err)
		}
		var rec temporal.Record
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			return nil, fmt.Errorf("%w: decode temporal %s: %v", ErrStorageUnavailable, fp, err)
		}
		out[fp] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate temporal: %v", ErrStorageUnavailable, err)
	}
	return out, nil
}

// SaveTemporal writes every record inside one exclusive transaction. The
// load/save cycle around an aggregation run is a critical section; the
// transaction keeps concurrent writers from losing occurrence updates.
func (s *SqlStore) SaveTemporal(records map[string]*temporal.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin temporal tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := nowUTC()
	for fp, rec := range records {
		blob, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode temporal %s: %w", fp, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO temporal_findings(fingerprint, record, updated_at) VALUES(?, ?, ?)
			 ON CONFLICT(fingerprint) DO UPDATE SET record=excluded.record, updated_at=excluded.updated_at`,
			fp, string(blob), now,
		); err != nil {
			return fmt.Errorf("upsert temporal %s: %w", fp, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit temporal tx: %w", err)
	}
	return nil
}

// LoadOverrides returns all overrides in registration order.
func (s *SqlStore) LoadOverrides() ([]*override.Override, error) {
	rows, err := s.db.Query("SELECT record FROM overrides ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("%w: query overrides: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []*override.Override
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("%w: scan override: %v", ErrStorageUnavailable, err)
		}
		var o override.Override
		if err := json.Unmarshal([]byte(blob), &o); err != nil {
			return nil, fmt.Errorf("%w: decode override: %v", ErrStorageUnavailable, err)
		}
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate overrides: %v", ErrStorageUnavailable, err)
	}
	return out, nil
}

// SaveOverrides replaces the stored registry with the given order. Running
// it in one transaction keeps removal and re-numbering atomic.
func (s *SqlStore) SaveOverrides(overrides []*override.Override) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin override tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM overrides"); err != nil {
		return fmt.Errorf("clear overrides: %w", err)
	}
	now := nowUTC()
	for i, o := range overrides {
		blob, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("encode override %s: %w", o.OverrideID, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO overrides(override_id, position, record, updated_at) VALUES(?, ?, ?, ?)",
			o.OverrideID, i, string(blob), now,
		); err != nil {
			return fmt.Errorf("insert override %s: %w", o.OverrideID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit override tx: %w", err)
	}
	return nil
}
