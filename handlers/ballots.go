// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/PPLEThai/pple-today-sub002/apperr"
	"github.com/PPLEThai/pple-today-sub002/db"
	"github.com/PPLEThai/pple-today-sub002/middleware"
	"github.com/PPLEThai/pple-today-sub002/models"
	"github.com/PPLEThai/pple-today-sub002/tally"
)

// Counter schedules counting jobs
type Counter interface {
	CountBallots(ctx context.Context, electionID string, ballots []string) (tally.Ticket, error)
}

// JobLedger reads tally job records
type JobLedger interface {
	Get(ctx context.Context, jobID string) (models.TallyJob, error)
	ListByElection(ctx context.Context, electionID string) ([]models.TallyJob, error)
}

type BallotHandler struct {
	counter Counter
	jobs    JobLedger
}

func NewBallotHandler(counter Counter, jobs JobLedger) *BallotHandler {
	return &BallotHandler{counter: counter, jobs: jobs}
}

// CountBallots handles POST /ballots/count
// Answers once the job is scheduled; the outcome goes to the backoffice.
func (h *BallotHandler) CountBallots(w http.ResponseWriter, r *http.Request) {
	var req models.CountBallotsRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	// Validate input
	if req.ElectionID == "" {
		middleware.WriteError(w, apperr.New(apperr.BadRequest, "electionId is required"))
		return
	}
	if req.Ballots == nil {
		middleware.WriteError(w, apperr.New(apperr.BadRequest, "ballots is required"))
		return
	}

	ticket, err := h.counter.CountBallots(r.Context(), req.ElectionID, req.Ballots)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusAccepted, models.CountBallotsResponse{
		Message: "Counting scheduled",
		JobID:   ticket.JobID,
	})
}

// GetJob handles GET /ballots/jobs/{jobId}
func (h *BallotHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	if jobID == "" {
		middleware.WriteError(w, apperr.New(apperr.BadRequest, "jobId is required"))
		return
	}

	job, err := h.jobs.Get(r.Context(), jobID)
	if errors.Is(err, db.ErrJobNotFound) {
		middleware.WriteError(w, apperr.New(apperr.JobNotFound, "Job not found"))
		return
	}
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, job)
}

// ListElectionJobs handles GET /ballots/elections/{electionId}/jobs
// Newest first.
func (h *BallotHandler) ListElectionJobs(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("electionId")
	if electionID == "" {
		middleware.WriteError(w, apperr.New(apperr.BadRequest, "electionId is required"))
		return
	}

	jobs, err := h.jobs.ListByElection(r.Context(), electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, jobs)
}
