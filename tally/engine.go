// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PPLEThai/pple-today-sub002/apperr"
	"github.com/PPLEThai/pple-today-sub002/metrics"
	"github.com/PPLEThai/pple-today-sub002/models"
	"github.com/PPLEThai/pple-today-sub002/reporter"
)

// BatchSize is the number of ballots decrypted concurrently
const BatchSize = 10

// Crypto is the part of the KMS client the engine needs
type Crypto interface {
	CheckIfKeysValid(ctx context.Context, electionID string) error
	DecryptCiphertext(ctx context.Context, electionID, ciphertext string) (string, error)
	CreateSignature(ctx context.Context, electionID string, payload []byte) (string, error)
}

// ResultReporter receives the terminal outcome of every job
type ResultReporter interface {
	UpdateElectionResult(ctx context.Context, u reporter.ResultUpdate) error
}

// Recorder keeps the job ledger. Ledger errors are logged and never change
// a job's outcome.
type Recorder interface {
	Scheduled(ctx context.Context, jobID, electionID string, ballotCount int, at time.Time) error
	Started(ctx context.Context, jobID string) error
	Finished(ctx context.Context, jobID string, status models.ResultStatus, outcome, errorCode string, at time.Time) error
}

// Ticket acknowledges a scheduled job
type Ticket struct {
	JobID string
}

// Completion describes how a job ended. Err is the counting failure and/or
// the reporting failure.
type Completion struct {
	JobID      string
	ElectionID string
	Status     models.ResultStatus
	Outcome    string
	Err        error
}

type Options struct {
	Workers   int
	QueueSize int
	BatchSize int

	Recorder Recorder

	// OnComplete is called exactly once per scheduled job
	OnComplete func(Completion)
}

type job struct {
	id         string
	electionID string
	ballots    []string
}

// Engine schedules counting jobs on a bounded queue served by a fixed pool
// of workers. At most one job per election is queued or running.
type Engine struct {
	crypto     Crypto
	reporter   ResultReporter
	recorder   Recorder
	onComplete func(Completion)

	workers   int
	batchSize int

	mu       sync.Mutex
	queue    chan *job
	inFlight map[string]string // election ID -> job ID
	started  bool
	closed   bool

	// Queue slots reserved by admissions still writing the ledger. The
	// queue is closed once closed is set and no reservation is left.
	reserved    int
	queueClosed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEngine(crypto Crypto, r ResultReporter, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = BatchSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		crypto:     crypto,
		reporter:   r,
		recorder:   opts.Recorder,
		onComplete: opts.OnComplete,
		workers:    opts.Workers,
		batchSize:  opts.BatchSize,
		queue:      make(chan *job, opts.QueueSize),
		inFlight:   make(map[string]string),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the workers
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started || e.closed {
		return
	}
	e.started = true

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	slog.Info("tally engine started", "workers", e.workers, "queue_size", cap(e.queue))
}

// Stop refuses new jobs and waits for queued and running jobs to finish.
// When ctx ends first, in-flight KMS and report calls are cancelled and Stop
// still waits for every job to complete.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.closeQueueLocked()
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.cancel()
		return nil
	case <-ctx.Done():
		e.cancel()
		<-done
		return ctx.Err()
	}
}

// CountBallots checks the election's keys and schedules a counting job. Key
// problems, a job already in flight for the election and a full queue are
// returned synchronously, and in those cases nothing is scheduled or
// reported.
func (e *Engine) CountBallots(ctx context.Context, electionID string, ballots []string) (Ticket, error) {
	if electionID == "" {
		return Ticket{}, e.reject(apperr.New(apperr.BadRequest, "electionId is required"))
	}

	if err := e.crypto.CheckIfKeysValid(ctx, electionID); err != nil {
		return Ticket{}, e.reject(err)
	}

	e.mu.Lock()
	if e.closed || !e.started {
		e.mu.Unlock()
		return Ticket{}, e.reject(apperr.New(apperr.QueueFull, "Counting is not accepting jobs"))
	}
	if jobID, busy := e.inFlight[electionID]; busy {
		e.mu.Unlock()
		slog.Info("count rejected, election busy", "election_id", electionID, "job_id", jobID)
		return Ticket{}, e.reject(apperr.New(apperr.CountInProgress, "A count for this election is already in progress"))
	}
	if len(e.queue)+e.reserved >= cap(e.queue) {
		e.mu.Unlock()
		return Ticket{}, e.reject(apperr.New(apperr.QueueFull, "Counting queue is full"))
	}

	j := &job{
		id:         uuid.NewString(),
		electionID: electionID,
		ballots:    append([]string(nil), ballots...),
	}
	e.inFlight[electionID] = j.id
	e.reserved++
	e.mu.Unlock()

	// The ledger write happens outside e.mu; the reserved slot keeps the
	// send below from blocking and the queue from closing.
	if e.recorder != nil {
		if err := e.recorder.Scheduled(ctx, j.id, electionID, len(ballots), time.Now()); err != nil {
			slog.Error("failed to record scheduled job", "job_id", j.id, "error", err)
		}
	}

	e.mu.Lock()
	e.queue <- j
	e.reserved--
	if e.closed {
		e.closeQueueLocked()
	}
	metrics.QueueDepth.Set(float64(len(e.queue)))
	e.mu.Unlock()

	slog.Info("count scheduled",
		"election_id", electionID,
		"job_id", j.id,
		"ballots", len(ballots),
	)
	return Ticket{JobID: j.id}, nil
}

func (e *Engine) closeQueueLocked() {
	if e.reserved == 0 && !e.queueClosed {
		e.queueClosed = true
		close(e.queue)
	}
}

// InFlight returns the job ID queued or running for an election
func (e *Engine) InFlight(electionID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.inFlight[electionID]
	return id, ok
}

func (e *Engine) reject(err error) error {
	metrics.CountRejected.WithLabelValues(apperr.From(err).Code).Inc()
	return err
}

func (e *Engine) worker() {
	defer e.wg.Done()

	for j := range e.queue {
		metrics.QueueDepth.Set(float64(len(e.queue)))
		e.process(j)
	}
}

func (e *Engine) process(j *job) {
	start := time.Now()
	log := slog.With("election_id", j.electionID, "job_id", j.id)

	if e.recorder != nil {
		if err := e.recorder.Started(e.ctx, j.id); err != nil {
			log.Error("failed to record started job", "error", err)
		}
	}

	update := reporter.ResultUpdate{ElectionID: j.electionID, Status: models.ResultCountSuccess}
	signed, countErr := e.count(e.ctx, j)
	if countErr != nil {
		update.Status = models.ResultCountFailed
		log.Warn("count failed", "code", apperr.From(countErr).Code, "error", countErr)
	} else {
		update.Result = signed.Result
		update.Signature = signed.Signature
	}

	c := Completion{
		JobID:      j.id,
		ElectionID: j.electionID,
		Status:     update.Status,
		Err:        countErr,
	}

	if err := e.reporter.UpdateElectionResult(e.ctx, update); err != nil {
		c.Outcome = metrics.OutcomeReportingError
		c.Err = errors.Join(countErr, err)
		log.Error("failed to report count outcome", "status", update.Status, "error", err)
	} else if update.Status == models.ResultCountSuccess {
		c.Outcome = metrics.OutcomeReportedSuccess
	} else {
		c.Outcome = metrics.OutcomeReportedFailure
	}

	metrics.CountDuration.Observe(time.Since(start).Seconds())
	log.Info("count finished",
		"status", c.Status,
		"outcome", c.Outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	e.complete(c)
}

// complete records the outcome and releases the election before calling the
// hook, so the hook may schedule the next count.
func (e *Engine) complete(c Completion) {
	if e.recorder != nil {
		var code string
		if c.Err != nil {
			code = apperr.From(c.Err).Code
		}
		// The ledger write must land even when shutdown cancelled e.ctx
		ctx, cancel := context.WithTimeout(context.WithoutCancel(e.ctx), 5*time.Second)
		if err := e.recorder.Finished(ctx, c.JobID, c.Status, c.Outcome, code, time.Now()); err != nil {
			slog.Error("failed to record finished job", "job_id", c.JobID, "error", err)
		}
		cancel()
	}

	metrics.CountJobs.WithLabelValues(c.Outcome).Inc()

	e.mu.Lock()
	if e.inFlight[c.ElectionID] == c.JobID {
		delete(e.inFlight, c.ElectionID)
	}
	e.mu.Unlock()

	if e.onComplete != nil {
		e.onComplete(c)
	}
}
