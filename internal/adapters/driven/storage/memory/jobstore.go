package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// JobStore is an in-memory implementation of driven.JobStore.
// Event logs are append-only; Expire is the only way to shrink the store.
type JobStore struct {
	mu     sync.RWMutex
	jobs   map[string]domain.Job
	events map[string][]domain.Event
}

// NewJobStore creates a new in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:   make(map[string]domain.Job),
		events: make(map[string][]domain.Event),
	}
}

// Create registers a new job.
func (s *JobStore) Create(_ context.Context, job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return domain.ErrJobExists
	}
	s.jobs[job.ID] = job
	s.events[job.ID] = nil
	return nil
}

// Get returns a job by ID.
func (s *JobStore) Get(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &job, nil
}

// Update replaces a job's record.
func (s *JobStore) Update(_ context.Context, job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return domain.ErrJobNotFound
	}
	s.jobs[job.ID] = job
	return nil
}

// List returns all jobs, oldest first.
func (s *JobStore) List(_ context.Context) ([]domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// Append adds an event and returns its index.
func (s *JobStore) Append(_ context.Context, jobID string, event domain.Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return 0, domain.ErrJobNotFound
	}
	event.Index = len(s.events[jobID])
	event.JobID = jobID
	s.events[jobID] = append(s.events[jobID], event)
	return event.Index, nil
}

// Events returns a copy of the events from index from onwards.
func (s *JobStore) Events(_ context.Context, jobID string, from int) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.jobs[jobID]; !ok {
		return nil, domain.ErrJobNotFound
	}
	log := s.events[jobID]
	if from < 0 {
		from = 0
	}
	if from >= len(log) {
		return nil, nil
	}
	out := make([]domain.Event, len(log)-from)
	copy(out, log[from:])
	return out, nil
}

// Expire removes terminal jobs last updated before the cutoff.
func (s *JobStore) Expire(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.IsDone() && job.UpdatedAt.Before(before) {
			delete(s.jobs, id)
			delete(s.events, id)
			removed++
		}
	}
	return removed, nil
}
