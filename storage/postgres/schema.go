package postgres

// schema is idempotent and applied on every Open.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS documents (
		name       TEXT PRIMARY KEY,
		content    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chunks (
		document_name TEXT NOT NULL,
		ordinal       INTEGER NOT NULL,
		content       TEXT NOT NULL,
		token_count   INTEGER NOT NULL DEFAULT 0,
		extraction    TEXT NOT NULL DEFAULT '',
		embedding     vector,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (document_name, ordinal)
	)`,
	`CREATE TABLE IF NOT EXISTS labels (
		id              BIGINT PRIMARY KEY,
		name            TEXT NOT NULL,
		normalized_name TEXT NOT NULL UNIQUE,
		category        TEXT NOT NULL DEFAULT '',
		usage_count     BIGINT NOT NULL DEFAULT 0,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chunk_labels (
		document_name TEXT NOT NULL,
		ordinal       INTEGER NOT NULL,
		label_id      BIGINT NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
		PRIMARY KEY (document_name, ordinal, label_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chunk_labels_label ON chunk_labels (label_id)`,
}
