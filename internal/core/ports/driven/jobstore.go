package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// JobStore keeps digest jobs and their append-only progress logs.
// Events are never removed or rewritten except by Expire.
type JobStore interface {
	// Create registers a new job. Returns domain.ErrJobExists on id collision.
	Create(ctx context.Context, job domain.Job) error

	// Get returns a job. Returns domain.ErrJobNotFound if unknown or expired.
	Get(ctx context.Context, jobID string) (*domain.Job, error)

	// Update replaces a job's record.
	Update(ctx context.Context, job domain.Job) error

	// List returns all retained jobs, oldest first.
	List(ctx context.Context) ([]domain.Job, error)

	// Append adds an event to the job's log and returns its index.
	Append(ctx context.Context, jobID string, event domain.Event) (int, error)

	// Events returns the events at index from and later.
	Events(ctx context.Context, jobID string, from int) ([]domain.Event, error)

	// Expire drops terminal jobs last updated before the cutoff, with their logs.
	// Returns the number of jobs removed.
	Expire(ctx context.Context, before time.Time) (int, error)
}
