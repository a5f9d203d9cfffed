package services

import (
	"context"
	"time"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/logger"
)

// Ensure ProgressTracker implements the sink.
var _ ProgressSink = (*ProgressTracker)(nil)

// ProgressTracker records a job's progress events in a JobStore and keeps
// the job record in step with them.
type ProgressTracker struct {
	jobs  driven.JobStore
	jobID string
	now   func() time.Time
}

// NewProgressTracker creates a tracker for one job.
func NewProgressTracker(jobs driven.JobStore, jobID string) *ProgressTracker {
	return &ProgressTracker{jobs: jobs, jobID: jobID, now: time.Now}
}

// Notify updates the job record and then appends the event, so a reader
// that sees a terminal event also sees the final record.
// Writes survive cancellation of ctx; failures are logged only.
func (t *ProgressTracker) Notify(ctx context.Context, phase domain.State, message string, status domain.EventStatus) {
	ctx = context.WithoutCancel(ctx)
	now := t.now()

	if job, err := t.jobs.Get(ctx, t.jobID); err == nil {
		job.State = phase
		job.UpdatedAt = now
		switch {
		case phase == domain.StatePersisting:
			job.Analysed = true
		case status == domain.EventCompleted:
			job.Analysed = true
			job.Saved = true
		case status == domain.EventError:
			job.Error = message
		}
		if err := t.jobs.Update(ctx, *job); err != nil {
			logger.Get().Warn().Err(err).Str("job_id", t.jobID).Msg("update job record")
		}
	} else {
		logger.Get().Warn().Err(err).Str("job_id", t.jobID).Msg("load job record")
	}

	_, err := t.jobs.Append(ctx, t.jobID, domain.Event{
		JobID:   t.jobID,
		Phase:   phase,
		Message: message,
		Status:  status,
		Time:    now,
	})
	if err != nil {
		logger.Get().Warn().Err(err).Str("job_id", t.jobID).Msg("append progress event")
	}
}
