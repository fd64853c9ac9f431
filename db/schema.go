// ABOUTME: Database schema definitions for deals and saved views
// ABOUTME: Nested deal collections are stored as JSON text columns
package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// column types differ per dialect; everything else is shared
var columnTypes = map[Dialect]map[string]string{
	SQLite:   {"TS": "DATETIME", "MONEY": "REAL"},
	Postgres: {"TS": "TIMESTAMPTZ", "MONEY": "DOUBLE PRECISION"},
}

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS deals (
	id TEXT PRIMARY KEY,
	deal_number TEXT NOT NULL,
	name TEXT NOT NULL,
	account_id TEXT,
	contact_id TEXT,
	owner_id TEXT NOT NULL,
	pipeline_id TEXT NOT NULL,
	stage_id TEXT NOT NULL,
	amount {{MONEY}} NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'USD',
	probability INTEGER NOT NULL DEFAULT 0,
	expected_close_date {{TS}},
	actual_close_date {{TS}},
	deal_type TEXT NOT NULL,
	lead_source TEXT,
	campaign_id TEXT,
	description TEXT,
	next_steps TEXT,
	notes TEXT,
	priority TEXT NOT NULL,
	health TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	custom_fields TEXT,
	activities TEXT,
	emails TEXT,
	attachments TEXT,
	stage_history TEXT NOT NULL,
	created_by TEXT,
	created_at {{TS}} NOT NULL,
	updated_at {{TS}} NOT NULL,
	last_activity_at {{TS}}
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_deals_deal_number ON deals(deal_number);
CREATE INDEX IF NOT EXISTS idx_deals_pipeline_stage ON deals(pipeline_id, stage_id);
CREATE INDEX IF NOT EXISTS idx_deals_owner ON deals(owner_id);

CREATE TABLE IF NOT EXISTS saved_views (
	name TEXT PRIMARY KEY,
	state TEXT NOT NULL,
	updated_at {{TS}} NOT NULL
);
`

// Schema renders the DDL for a dialect.
func Schema(d Dialect) (string, error) {
	types, ok := columnTypes[d]
	if !ok {
		return "", fmt.Errorf("unsupported dialect %q", d)
	}
	ddl := schemaTemplate
	for k, v := range types {
		ddl = strings.ReplaceAll(ddl, "{{"+k+"}}", v)
	}
	return ddl, nil
}

func InitSchema(db *sql.DB, d Dialect) error {
	ddl, err := Schema(d)
	if err != nil {
		return err
	}
	// one statement per Exec so both drivers accept it
	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
