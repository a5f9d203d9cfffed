package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
)

// jobStore implements driven.JobStore.
// Append takes the job row's write lock before reading the next event index,
// so concurrent appenders to one job are serialised by the database.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

const selectJobs = `
	SELECT job_id, chapter_id, chapter_title, state, error, analysed, saved, created_at, updated_at
	FROM jobs`

// Create registers a new job.
func (s *jobStore) Create(ctx context.Context, job domain.Job) error {
	var exists int
	err := s.store.db.QueryRowContext(ctx, s.store.q("SELECT COUNT(*) FROM jobs WHERE job_id = ?"), job.ID).
		Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking job: %w", err)
	}
	if exists > 0 {
		return domain.ErrJobExists
	}

	_, err = s.store.db.ExecContext(ctx, s.store.q(`
		INSERT INTO jobs (job_id, chapter_id, chapter_title, state, error, analysed, saved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		job.ID, job.ChapterID, job.Title, job.State.String(), job.Error,
		job.Analysed, job.Saved, job.CreatedAt.UnixNano(), job.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

// Get returns a job by ID.
func (s *jobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	row := s.store.db.QueryRowContext(ctx, s.store.q(selectJobs+" WHERE job_id = ?"), jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return job, nil
}

// Update replaces a job's record.
func (s *jobStore) Update(ctx context.Context, job domain.Job) error {
	res, err := s.store.db.ExecContext(ctx, s.store.q(`
		UPDATE jobs SET chapter_id = ?, chapter_title = ?, state = ?, error = ?,
		                analysed = ?, saved = ?, updated_at = ?
		WHERE job_id = ?`),
		job.ChapterID, job.Title, job.State.String(), job.Error,
		job.Analysed, job.Saved, job.UpdatedAt.UnixNano(), job.ID)
	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}
	if n == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// List returns all jobs, oldest first.
func (s *jobStore) List(ctx context.Context) ([]domain.Job, error) {
	rows, err := s.store.db.QueryContext(ctx, selectJobs+" ORDER BY created_at, job_id")
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job //nolint:prealloc // size unknown from query
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

// Append adds an event and returns its index.
func (s *jobStore) Append(ctx context.Context, jobID string, event domain.Event) (int, error) {
	var index int
	err := s.store.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			s.store.q("UPDATE jobs SET updated_at = updated_at WHERE job_id = ?"), jobID)
		if err != nil {
			return err
		}
		locked, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if locked == 0 {
			return domain.ErrJobNotFound
		}

		if err := tx.QueryRowContext(ctx,
			s.store.q("SELECT COALESCE(MAX(idx) + 1, 0) FROM job_events WHERE job_id = ?"), jobID).
			Scan(&index); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.store.q(`
			INSERT INTO job_events (job_id, idx, phase, message, status, at)
			VALUES (?, ?, ?, ?, ?, ?)`),
			jobID, index, event.Phase.String(), event.Message, string(event.Status), event.Time.UnixNano())
		return err
	})
	if errors.Is(err, domain.ErrJobNotFound) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("appending event: %w", err)
	}
	return index, nil
}

// Events returns the events from index from onwards.
func (s *jobStore) Events(ctx context.Context, jobID string, from int) ([]domain.Event, error) {
	if _, err := s.Get(ctx, jobID); err != nil {
		return nil, err
	}
	if from < 0 {
		from = 0
	}

	rows, err := s.store.db.QueryContext(ctx, s.store.q(`
		SELECT idx, phase, message, status, at FROM job_events
		WHERE job_id = ? AND idx >= ? ORDER BY idx`), jobID, from)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		ev := domain.Event{JobID: jobID}
		var phase, status string
		var at int64
		if err := rows.Scan(&ev.Index, &phase, &ev.Message, &status, &at); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Phase = domain.State(phase)
		ev.Status = domain.EventStatus(status)
		ev.Time = time.Unix(0, at)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// Expire removes terminal jobs last updated before the cutoff.
// Their events cascade.
func (s *jobStore) Expire(ctx context.Context, before time.Time) (int, error) {
	res, err := s.store.db.ExecContext(ctx, s.store.q(`
		DELETE FROM jobs WHERE state IN (?, ?) AND updated_at < ?`),
		domain.StateCompleted.String(), domain.StateFailed.String(), before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("expiring jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expiring jobs: %w", err)
	}
	return int(n), nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var state string
	var created, updated int64
	if err := row.Scan(&job.ID, &job.ChapterID, &job.Title, &state, &job.Error,
		&job.Analysed, &job.Saved, &created, &updated); err != nil {
		return nil, err
	}
	job.State = domain.State(state)
	job.CreatedAt = time.Unix(0, created)
	job.UpdatedAt = time.Unix(0, updated)
	return &job, nil
}
