package store

// schemaVersionV1 is the initial schema.
const schemaVersionV1 = 1

// schemaV1 creates the full v1 schema. Temporal records and overrides are
// stored as JSON blobs keyed by their natural IDs; the override position
// column preserves registration order, which the matching rules depend on.
const schemaV1 = `
CREATE TABLE schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE temporal_findings (
	fingerprint TEXT PRIMARY KEY,
	record      TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE overrides (
	override_id TEXT PRIMARY KEY,
	position    INTEGER NOT NULL,
	record      TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE INDEX idx_overrides_position ON overrides(position);
`
