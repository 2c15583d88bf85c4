package db

import (
	"context"
	"fmt"
	"strings"
)

// schema is the full database schema. It sticks to types both SQLite and
// Postgres accept; record documents are stored as JSON text.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id       TEXT PRIMARY KEY,
    user_name     TEXT NOT NULL,
    user_group    TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    park_ids      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS areas (
    area_id TEXT PRIMARY KEY,
    code    TEXT NOT NULL UNIQUE,
    name    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS parks (
    park_id   TEXT PRIMARY KEY,
    name      TEXT NOT NULL DEFAULT '',
    area_code TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS records (
    id       TEXT PRIMARY KEY,
    kind     TEXT NOT NULL CHECK (kind IN ('asset', 'transfer', 'disposal')),
    location TEXT NOT NULL DEFAULT '',
    old_code TEXT NOT NULL DEFAULT '',
    when_at  TEXT NOT NULL DEFAULT '',
    doc      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_kind_location ON records(kind, location);
CREATE INDEX IF NOT EXISTS idx_records_old_code ON records(kind, old_code);

CREATE TABLE IF NOT EXISTS logs (
    id          TEXT PRIMARY KEY,
    action      TEXT NOT NULL,
    operator    TEXT NOT NULL DEFAULT '',
    target_type TEXT NOT NULL,
    target_id   TEXT NOT NULL,
    before_doc  TEXT NOT NULL,
    after_doc   TEXT NOT NULL,
    at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_logs_target ON logs(target_type, target_id);
`

// EnsureSchema creates all tables if they don't exist.
func EnsureSchema(ctx context.Context, d *DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
