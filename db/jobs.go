// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/PPLEThai/pple-today-sub002/models"
)

var ErrJobNotFound = errors.New("tally job not found")

// JobStore is the tally job ledger. Operators use it to spot jobs whose
// outcome never reached the system of record.
type JobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

// Scheduled records a newly accepted job
func (s *JobStore) Scheduled(ctx context.Context, jobID, electionID string, ballotCount int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tally_job (id, election_id, ballot_count, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, jobID, electionID, ballotCount, models.JobStatusScheduled, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert tally job: %w", err)
	}
	return nil
}

// Started marks a job as picked up by a worker
func (s *JobStore) Started(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tally_job SET status = $1 WHERE id = $2
	`, models.JobStatusRunning, jobID)
	if err != nil {
		return fmt.Errorf("failed to mark tally job running: %w", err)
	}
	return nil
}

// Finished records the terminal status and how the report went.
// errorCode is empty on success.
func (s *JobStore) Finished(ctx context.Context, jobID string, status models.ResultStatus, outcome, errorCode string, at time.Time) error {
	var code *string
	if errorCode != "" {
		code = &errorCode
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tally_job
		SET status = $1, outcome = $2, error_code = $3, finished_at = $4
		WHERE id = $5
	`, string(status), outcome, code, at.UTC(), jobID)
	if err != nil {
		return fmt.Errorf("failed to finish tally job: %w", err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Get returns a job by ID
func (s *JobStore) Get(ctx context.Context, jobID string) (models.TallyJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, election_id, ballot_count, status, outcome, error_code, created_at, finished_at
		FROM tally_job
		WHERE id = $1
	`, jobID)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return models.TallyJob{}, ErrJobNotFound
	}
	if err != nil {
		return models.TallyJob{}, fmt.Errorf("failed to query tally job: %w", err)
	}
	return job, nil
}

// ListByElection returns an election's jobs, newest first
func (s *JobStore) ListByElection(ctx context.Context, electionID string) ([]models.TallyJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, election_id, ballot_count, status, outcome, error_code, created_at, finished_at
		FROM tally_job
		WHERE election_id = $1
		ORDER BY created_at DESC, id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tally jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.TallyJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tally job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (models.TallyJob, error) {
	var (
		job        models.TallyJob
		outcome    sql.NullString
		errorCode  sql.NullString
		finishedAt sql.NullTime
	)

	err := s.Scan(&job.ID, &job.ElectionID, &job.BallotCount, &job.Status,
		&outcome, &errorCode, &job.CreatedAt, &finishedAt)
	if err != nil {
		return models.TallyJob{}, err
	}

	if outcome.Valid {
		job.Outcome = &outcome.String
	}
	if errorCode.Valid {
		job.ErrorCode = &errorCode.String
	}
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}
	return job, nil
}
