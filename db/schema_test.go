// ABOUTME: Tests for schema rendering and creation
// ABOUTME: Uses in-memory SQLite for fast isolated tests
package db

import (
	"database/sql"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestInitSchema(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := InitSchema(db, SQLite); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	indexes := []string{
		"idx_deals_deal_number",
		"idx_deals_pipeline_stage",
		"idx_deals_owner",
	}
	for _, idx := range indexes {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&name)
		if err != nil {
			t.Errorf("Index %s not found: %v", idx, err)
		}
	}
}

func TestSchemaDialects(t *testing.T) {
	pg, err := Schema(Postgres)
	if err != nil {
		t.Fatalf("Schema(Postgres) failed: %v", err)
	}
	if !strings.Contains(pg, "TIMESTAMPTZ") || strings.Contains(pg, "{{") {
		t.Errorf("postgres schema not rendered: %s", pg)
	}

	if _, err := Schema("oracle"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}
