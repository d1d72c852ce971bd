// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PPLEThai/pple-today-sub002/models"
)

func openTestStore(t *testing.T) *JobStore {
	t.Helper()

	conn, err := Open("sqlite", "file:"+filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, CreateSchema(conn))
	// Idempotent
	require.NoError(t, CreateSchema(conn))

	return NewJobStore(conn)
}

func TestJobStore_Lifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Scheduled(ctx, "job-1", "e1", 3, created))

	job, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "e1", job.ElectionID)
	assert.Equal(t, 3, job.BallotCount)
	assert.Equal(t, models.JobStatusScheduled, job.Status)
	assert.Nil(t, job.Outcome)
	assert.Nil(t, job.FinishedAt)
	assert.True(t, created.Equal(job.CreatedAt))

	require.NoError(t, store.Started(ctx, "job-1"))
	job, err = store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, job.Status)

	finished := created.Add(time.Minute)
	require.NoError(t, store.Finished(ctx, "job-1", models.ResultCountSuccess, "REPORTED_SUCCESS", "", finished))

	job, err = store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusSucceeded, job.Status)
	require.NotNil(t, job.Outcome)
	assert.Equal(t, "REPORTED_SUCCESS", *job.Outcome)
	assert.Nil(t, job.ErrorCode)
	require.NotNil(t, job.FinishedAt)
	assert.True(t, finished.Equal(*job.FinishedAt))
}

func TestJobStore_FailedWithErrorCode(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Scheduled(ctx, "job-2", "e1", 20, time.Now()))
	require.NoError(t, store.Finished(ctx, "job-2", models.ResultCountFailed, "REPORTING_ERROR", "REPORTING_FAILED", time.Now()))

	job, err := store.Get(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	require.NotNil(t, job.ErrorCode)
	assert.Equal(t, "REPORTING_FAILED", *job.ErrorCode)
}

func TestJobStore_NotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	err = store.Finished(ctx, "missing", models.ResultCountFailed, "REPORTED_FAILURE", "", time.Now())
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobStore_ListByElection(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Scheduled(ctx, "a", "e1", 1, base))
	require.NoError(t, store.Scheduled(ctx, "b", "e1", 2, base.Add(time.Hour)))
	require.NoError(t, store.Scheduled(ctx, "c", "e2", 3, base))

	jobs, err := store.ListByElection(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "b", jobs[0].ID)
	assert.Equal(t, "a", jobs[1].ID)

	jobs, err = store.ListByElection(ctx, "none")
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestOpen_RejectsUnknownType(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
}
