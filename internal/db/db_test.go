package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestOpen_FreshInstallMarksAllMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mqmon.db")

	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	v, err := CurrentVersion(conn)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("version = %d, want %d", v, len(migrations))
	}

	if _, err := conn.Exec("INSERT INTO handles (source, role, name, created_at) VALUES ('a', 'endpoint', 'ep', '2021-02-12T13:00:00Z')"); err != nil {
		t.Errorf("insert failed: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO handles (source, role, name, created_at) VALUES ('a', 'pipeline', 'x', '2021-02-12T13:00:00Z')"); err == nil {
		t.Error("expected unknown role to be rejected")
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mqmon.db")

	conn, err := Open(path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	conn.Close()

	conn, err = Open(path)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer conn.Close()
}

func TestRunMigrations_UpgradesVersionOne(t *testing.T) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer conn.Close()
	conn.SetMaxOpenConns(1)

	if err := createVersionTable(conn); err != nil {
		t.Fatal(err)
	}
	tx, _ := conn.Begin()
	if err := migrationV1(tx); err != nil {
		t.Fatal(err)
	}
	tx.Exec("INSERT INTO schema_version (version) VALUES (1)")
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	if err := InitSchema(conn); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	var n int
	conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_handles_source_role'").Scan(&n)
	if n != 1 {
		t.Error("expected migration 2 to create the index")
	}
}
