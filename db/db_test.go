// ABOUTME: Tests for database opening and placeholder rebinding
// ABOUTME: Uses temp-dir SQLite databases
package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "deals.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('deals', 'saved_views')").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 tables, got %d", count)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL mode, got %s", mode)
	}
}

func TestOpenDatabaseInvalidPath(t *testing.T) {
	dbPath := "/invalid/nonexistent/path/that/cannot/be/created/deals.db"

	if _, err := OpenDatabase(dbPath); err == nil {
		t.Errorf("Expected error for invalid path, but OpenDatabase succeeded")
	}
}

func TestOpenDatabaseTwice(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "deals.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("Initial OpenDatabase failed: %v", err)
	}
	_ = db.Close()

	db, err = OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("Reopening should succeed, got: %v", err)
	}
	_ = db.Close()
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM deals WHERE id = ? AND stage_id = ?"
	if got := rebind(SQLite, q); got != q {
		t.Errorf("sqlite query changed: %s", got)
	}
	want := "SELECT * FROM deals WHERE id = $1 AND stage_id = $2"
	if got := rebind(Postgres, q); got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}
}
