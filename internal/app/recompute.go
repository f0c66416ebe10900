package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hoteliq/internal/adapters/observability"
)

type JobState string

const (
	JobIdle      JobState = "idle"
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobDone      JobState = "done"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

type JobStatus struct {
	ID         string            `json:"id,omitempty"`
	State      JobState          `json:"state"`
	QueuedAt   *time.Time        `json:"queued_at,omitempty"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	Summary    *RecomputeSummary `json:"summary,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func (s JobStatus) active() bool { return s.State == JobQueued || s.State == JobRunning }

type recomputeRunner interface {
	RecomputeAll(ctx context.Context) (RecomputeSummary, error)
}

// Recomputer runs bulk metric recomputation off the request path. Serve owns
// the single worker, so at most one recompute runs at a time; triggers while
// a job is queued or running join that job.
type Recomputer struct {
	calc  recomputeRunner
	queue chan string

	mu     sync.Mutex
	status JobStatus
	cancel context.CancelFunc
	now    func() time.Time
}

func NewRecomputer(calc recomputeRunner) *Recomputer {
	return &Recomputer{
		calc:   calc,
		queue:  make(chan string, 1),
		status: JobStatus{State: JobIdle},
		now:    time.Now,
	}
}

func (r *Recomputer) String() string { return "metrics-recomputer" }

// Serve implements suture.Service.
func (r *Recomputer) Serve(ctx context.Context) error {
	log.Info().Msg("recompute worker started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case id := <-r.queue:
			r.run(ctx, id)
		}
	}
}

// Trigger queues a recompute unless one is already queued or running. It
// returns the status of the job the caller is now waiting on and whether a
// new job was created.
func (r *Recomputer) Trigger() (JobStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status.active() {
		return r.status, false
	}
	now := r.now().UTC()
	r.status = JobStatus{ID: uuid.NewString(), State: JobQueued, QueuedAt: &now}
	select {
	case r.queue <- r.status.ID:
	default:
		// unreachable while the queue is only filled here and drained on cancel
		log.Error().Str("job_id", r.status.ID).Msg("recompute queue full")
	}
	log.Info().Str("job_id", r.status.ID).Msg("recompute queued")
	return r.status, true
}

// Cancel stops the queued or running job. It reports false when nothing was active.
func (r *Recomputer) Cancel() (JobStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.status.State {
	case JobQueued:
		select {
		case <-r.queue:
		default:
		}
		now := r.now().UTC()
		r.status.State, r.status.FinishedAt = JobCancelled, &now
		observability.ObserveRecompute(string(JobCancelled))
		return r.status, true
	case JobRunning:
		r.cancel()
		return r.status, true
	}
	return r.status, false
}

func (r *Recomputer) Status() JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Recomputer) run(ctx context.Context, id string) {
	r.mu.Lock()
	if r.status.ID != id || r.status.State != JobQueued {
		r.mu.Unlock()
		return
	}
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	started := r.now().UTC()
	r.status.State, r.status.StartedAt = JobRunning, &started
	r.cancel = cancel
	r.mu.Unlock()

	logger := log.With().Str("job_id", id).Logger()
	logger.Info().Msg("recompute started")

	sum, err := r.calc.RecomputeAll(jobCtx)

	r.mu.Lock()
	defer r.mu.Unlock()
	finished := r.now().UTC()
	r.status.FinishedAt = &finished
	r.status.Summary = &sum
	r.cancel = nil
	switch {
	case err == nil:
		r.status.State = JobDone
		logger.Info().Int("metrics", sum.MetricsCalculated).Int("hotels", sum.HotelsProcessed).Msg("recompute done")
	case errors.Is(err, context.Canceled):
		r.status.State, r.status.Error = JobCancelled, err.Error()
		logger.Warn().Msg("recompute cancelled")
	default:
		r.status.State, r.status.Error = JobFailed, err.Error()
		logger.Error().Err(err).Msg("recompute failed")
	}
	observability.ObserveRecompute(string(r.status.State))
}
