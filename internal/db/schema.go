package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS events (
    id          INTEGER PRIMARY KEY,
    kind        TEXT NOT NULL CHECK (kind IN ('item_added', 'borrowed', 'returned', 'sold')),
    actor       TEXT NOT NULL DEFAULT '',
    item_id     TEXT NOT NULL DEFAULT '',
    sale_id     TEXT NOT NULL DEFAULT '',
    detail      TEXT NOT NULL DEFAULT '',
    occurred_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// indexes are applied in order after the tables exist. Each must be
// idempotent. Append new ones at the end.
var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind)`,
	`CREATE INDEX IF NOT EXISTS idx_events_actor ON events(actor)`,
	`CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires ON revoked_tokens(expires_at)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating index %d: %w", i+1, err)
		}
	}

	return nil
}
