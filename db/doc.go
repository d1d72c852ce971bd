// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles the tally job ledger.

# Connecting

Open supports SQLite (modernc.org/sqlite, the default) and PostgreSQL
(github.com/lib/pq):

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - tally_job: one row per accepted counting job

The ledger holds metadata only: job id, election id, ballot count, status,
report outcome, error code and timestamps. Ballots, plaintext votes and
candidate totals are never stored here; the system of record owns results.

# Job Store

JobStore implements the recorder the tally engine calls on schedule, start
and completion:

	store := db.NewJobStore(conn)
	job, err := store.Get(ctx, jobID)

A job stuck in SCHEDULED or RUNNING after a restart, or one finished with
outcome REPORTING_ERROR, is an election whose status the backoffice never
received.
*/
package db
