package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// JobService submits digest runs and exposes their progress.
type JobService interface {
	// Submit validates the request, registers a job and starts the run in
	// the background. It returns as soon as the job is registered.
	Submit(ctx context.Context, req domain.DigestRequest) (*domain.Job, error)

	// Get returns the current job record.
	Get(ctx context.Context, jobID string) (*domain.Job, error)

	// List returns all retained jobs.
	List(ctx context.Context) ([]domain.Job, error)

	// Events returns progress events from index from onwards.
	Events(ctx context.Context, jobID string, from int) ([]domain.Event, error)

	// Follow calls fn for each event from index from onwards until a terminal
	// event is seen, ctx is done or timeout elapses. A timeout returns
	// domain.ErrWaitTimeout and does not affect the job.
	Follow(ctx context.Context, jobID string, from int, timeout time.Duration, fn func(domain.Event) error) error

	// Wait blocks until the job is terminal or ctx is done, then returns
	// the final job record.
	Wait(ctx context.Context, jobID string) (*domain.Job, error)

	// Cancel asks a running job to stop at its next checkpoint.
	Cancel(ctx context.Context, jobID string) error
}

// IngestService turns uploaded files into digest requests.
type IngestService interface {
	// Extract decodes an upload into text. Too-short or undecodable input
	// returns a *domain.ExtractionInputError.
	Extract(ctx context.Context, upload domain.Upload) (*domain.ExtractedText, error)

	// SupportedExtensions lists the file extensions that can be extracted.
	SupportedExtensions() []string
}
