package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: the feed lists newest items first.
	`CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at DESC, id DESC)`,
	// Migration 2: claimed filtering on the admin side.
	`CREATE INDEX IF NOT EXISTS idx_items_claimed ON items(claimed)`,
}

// migrate runs the backend schema migrations.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
