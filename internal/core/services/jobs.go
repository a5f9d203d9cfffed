package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/digest-cli/internal/logger"
)

// Ensure JobRunner implements the interface.
var _ driving.JobService = (*JobRunner)(nil)

// DefaultPollInterval is how often Follow re-reads a job's event log.
const DefaultPollInterval = 500 * time.Millisecond

// pipeline runs one digest synchronously.
type pipeline interface {
	Run(ctx context.Context, jobID string, req domain.DigestRequest, sink ProgressSink) (*domain.ChapterAnalysis, error)
}

// JobRunner runs digests off the caller's path, one goroutine per job.
type JobRunner struct {
	pipeline     pipeline
	jobs         driven.JobStore
	settings     domain.JobSettings
	pollInterval time.Duration

	baseCtx context.Context
	stopAll context.CancelFunc

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup

	janitorMu   sync.Mutex
	janitorStop chan struct{}
	janitorWG   sync.WaitGroup
}

// NewJobRunner creates a runner over the given pipeline and job store.
func NewJobRunner(p pipeline, jobs driven.JobStore, settings domain.JobSettings) *JobRunner {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobRunner{
		pipeline:     p,
		jobs:         jobs,
		settings:     settings,
		pollInterval: DefaultPollInterval,
		baseCtx:      ctx,
		stopAll:      cancel,
		running:      make(map[string]context.CancelFunc),
	}
}

// SetPollInterval overrides how often Follow polls. Intended for tests.
func (r *JobRunner) SetPollInterval(d time.Duration) {
	if d > 0 {
		r.pollInterval = d
	}
}

// Submit validates the request, registers a job and starts the run.
// The chapter id is generated here when absent so the job record carries it.
func (r *JobRunner) Submit(ctx context.Context, req domain.DigestRequest) (*domain.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	req = req.WithDefaults()
	if req.ChapterID == "" {
		req.ChapterID = NewChapterID()
	}

	now := time.Now()
	job := domain.Job{
		ID:        uuid.NewString(),
		ChapterID: req.ChapterID,
		Title:     req.ChapterTitle,
		State:     domain.StateInitialized,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	runCtx, cancel := context.WithCancel(r.baseCtx)
	r.mu.Lock()
	r.running[job.ID] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release(job.ID)

		_, err := r.pipeline.Run(runCtx, job.ID, req, NewProgressTracker(r.jobs, job.ID))
		if err != nil {
			logger.Get().Debug().Err(err).Str("job_id", job.ID).Msg("job finished with error")
		}
	}()

	logger.Get().Info().Str("job_id", job.ID).Str("chapter_id", job.ChapterID).Msg("job submitted")
	return &job, nil
}

func (r *JobRunner) release(jobID string) {
	r.mu.Lock()
	cancel, ok := r.running[jobID]
	delete(r.running, jobID)
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

// Get returns the current job record.
func (r *JobRunner) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	return r.jobs.Get(ctx, jobID)
}

// List returns all retained jobs.
func (r *JobRunner) List(ctx context.Context) ([]domain.Job, error) {
	return r.jobs.List(ctx)
}

// Events returns the job's events from index from onwards.
func (r *JobRunner) Events(ctx context.Context, jobID string, from int) ([]domain.Event, error) {
	return r.jobs.Events(ctx, jobID, from)
}

// Follow streams events from the reader's own cursor until a terminal event.
// Giving up after timeout returns domain.ErrWaitTimeout; the job keeps running.
func (r *JobRunner) Follow(
	ctx context.Context,
	jobID string,
	from int,
	timeout time.Duration,
	fn func(domain.Event) error,
) error {
	if timeout <= 0 {
		timeout = r.settings.WaitTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, timeout, domain.ErrWaitTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	cursor := max(0, from)
	for {
		events, err := r.jobs.Events(ctx, jobID, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			return err
		}

		for _, ev := range events {
			if err := fn(ev); err != nil {
				return err
			}
			cursor = ev.Index + 1
			if ev.Status.IsTerminal() {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-ticker.C:
		}
	}
}

// Wait blocks until the job is terminal and returns its final record.
func (r *JobRunner) Wait(ctx context.Context, jobID string) (*domain.Job, error) {
	err := r.Follow(ctx, jobID, 0, r.settings.WaitTimeout, func(domain.Event) error { return nil })
	if err != nil {
		return nil, err
	}
	return r.jobs.Get(ctx, jobID)
}

// Cancel asks a running job to stop. Cancelling a finished job is a no-op.
func (r *JobRunner) Cancel(ctx context.Context, jobID string) error {
	r.mu.Lock()
	cancel, ok := r.running[jobID]
	r.mu.Unlock()

	if !ok {
		_, err := r.jobs.Get(ctx, jobID)
		return err
	}

	logger.Get().Info().Str("job_id", jobID).Msg("cancelling job")
	cancel()
	return nil
}

// Shutdown waits for running jobs to finish. When ctx ends first, the
// remaining jobs are cancelled and awaited.
func (r *JobRunner) Shutdown(ctx context.Context) error {
	r.StopJanitor()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.stopAll()
		return nil
	case <-ctx.Done():
		r.stopAll()
		<-done
		return ctx.Err()
	}
}

// StartJanitor expires finished jobs older than the retention TTL every
// interval. It returns immediately; StopJanitor or Shutdown ends it.
func (r *JobRunner) StartJanitor(interval time.Duration) {
	if interval <= 0 || r.settings.TTL <= 0 {
		return
	}

	r.janitorMu.Lock()
	defer r.janitorMu.Unlock()
	if r.janitorStop != nil {
		return
	}
	stop := make(chan struct{})
	r.janitorStop = stop

	r.janitorWG.Add(1)
	go func() {
		defer r.janitorWG.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-r.baseCtx.Done():
				return
			case <-ticker.C:
				r.expire()
			}
		}
	}()
}

// StopJanitor stops the expiry loop, if running.
func (r *JobRunner) StopJanitor() {
	r.janitorMu.Lock()
	stop := r.janitorStop
	r.janitorStop = nil
	r.janitorMu.Unlock()

	if stop != nil {
		close(stop)
		r.janitorWG.Wait()
	}
}

func (r *JobRunner) expire() {
	n, err := r.jobs.Expire(r.baseCtx, time.Now().Add(-r.settings.TTL))
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Get().Warn().Err(err).Msg("expire jobs")
		return
	}
	if n > 0 {
		logger.Get().Debug().Int("jobs", n).Msg("expired finished jobs")
	}
}
