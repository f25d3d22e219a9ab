package db

import (
	"database/sql"
	"fmt"
)

// schema is the backend database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    is_staff      INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    uuid        TEXT NOT NULL UNIQUE,
    user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    category    TEXT NOT NULL CHECK (category IN ('electronics', 'documents', 'clothing', 'accessories', 'other')),
    description TEXT NOT NULL DEFAULT '',
    date_found  TEXT NOT NULL,
    image       BLOB,
    image_mime  TEXT,
    claimed     INTEGER NOT NULL DEFAULT 0,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// localSchema is the schema of the client's on-device state database.
const localSchema = `
CREATE TABLE IF NOT EXISTS settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// EnsureSchema creates all backend tables and indexes if they don't already
// exist, then applies migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return migrate(db)
}

// EnsureLocalSchema creates the client state tables if they don't already exist.
func EnsureLocalSchema(db *sql.DB) error {
	if _, err := db.Exec(localSchema); err != nil {
		return fmt.Errorf("creating local schema: %w", err)
	}
	return nil
}
