package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the authoritative schema for fresh installs.
// Handles are append-only: the newest row for a (source, role) pair is the
// active one and every earlier row is superseded by its successor.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS handles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('endpoint', 'model', 'monitor', 'schedule')),
	name TEXT NOT NULL DEFAULT '',
	uri TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_handles_source_role ON handles(source, role, id);
`

// GetSchemaSQL returns the authoritative schema, for tests.
func GetSchemaSQL() string {
	return SchemaSQL
}

// InitSchema creates the schema on a fresh database or migrates an existing one.
func InitSchema(conn *sql.DB) error {
	var tableCount int
	err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(conn)
	}

	// Fresh install: create the modern schema directly and mark every
	// migration as applied.
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(conn); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := conn.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func createVersionTable(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}
