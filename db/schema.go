// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the ledger database. dbType is "sqlite" or "postgres".
func Open(dbType, url string) (*sql.DB, error) {
	driver := dbType
	if dbType != "sqlite" && dbType != "postgres" {
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dbType, err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY
	if dbType == "sqlite" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Portable between SQLite and PostgreSQL
const schema = `
-- Tally jobs (metadata only, never ballots or counts)
CREATE TABLE IF NOT EXISTS tally_job (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL,
    ballot_count INTEGER NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('SCHEDULED', 'RUNNING', 'COUNT_SUCCESS', 'COUNT_FAILED')),
    outcome TEXT,
    error_code TEXT,
    created_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tally_job_election_id ON tally_job(election_id);
CREATE INDEX IF NOT EXISTS idx_tally_job_status ON tally_job(status);
`
