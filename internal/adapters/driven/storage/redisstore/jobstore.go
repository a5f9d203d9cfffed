// Package redisstore implements driven.JobStore on Redis so several digest
// processes can share job progress.
//
// Layout, under a configurable prefix:
//
//	<prefix>job:<id>         JSON job record
//	<prefix>job:<id>:events  list of JSON events, index = list position
//	<prefix>jobs             sorted set of job ids scored by creation time
//
// Terminal jobs are also given a Redis TTL, so records disappear even when
// no process runs the janitor.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
)

// DefaultPrefix namespaces digest keys.
const DefaultPrefix = "digest:"

// Client is the subset of redis commands the job store uses.
// *redis.Client satisfies it.
type Client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	SetXX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	ZRem(ctx context.Context, key string, members ...any) *redis.IntCmd
}

var _ driven.JobStore = (*JobStore)(nil)

// JobStore is a Redis-backed driven.JobStore.
type JobStore struct {
	client Client
	prefix string
	ttl    time.Duration
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewJobStore creates a job store. A positive ttl is applied to terminal jobs.
func NewJobStore(client Client, prefix string, ttl time.Duration) *JobStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &JobStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *JobStore) jobKey(id string) string    { return s.prefix + "job:" + id }
func (s *JobStore) eventsKey(id string) string { return s.prefix + "job:" + id + ":events" }
func (s *JobStore) indexKey() string           { return s.prefix + "jobs" }

// Create registers a new job.
func (s *JobStore) Create(ctx context.Context, job domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.jobKey(job.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("creating job: %w", err)
	}
	if !ok {
		return domain.ErrJobExists
	}
	score := float64(job.CreatedAt.UnixNano())
	if err := s.client.ZAdd(ctx, s.indexKey(), redis.Z{Score: score, Member: job.ID}).Err(); err != nil {
		return fmt.Errorf("indexing job: %w", err)
	}
	return nil
}

// Get returns a job by ID.
func (s *JobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	data, err := s.client.Get(ctx, s.jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}
	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decoding job %s: %w", jobID, err)
	}
	return &job, nil
}

// Update replaces a job's record. Terminal jobs start their TTL.
func (s *JobStore) Update(ctx context.Context, job domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}
	var expiration time.Duration
	if job.IsDone() && s.ttl > 0 {
		expiration = s.ttl
	}
	ok, err := s.client.SetXX(ctx, s.jobKey(job.ID), data, expiration).Result()
	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}
	if !ok {
		return domain.ErrJobNotFound
	}
	if expiration > 0 {
		if err := s.client.Expire(ctx, s.eventsKey(job.ID), expiration).Err(); err != nil {
			return fmt.Errorf("setting event ttl: %w", err)
		}
	}
	return nil
}

// List returns all retained jobs, oldest first.
func (s *JobStore) List(ctx context.Context) ([]domain.Job, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	jobs := make([]domain.Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrJobNotFound) {
			// Expired by TTL; drop the stale index entry.
			_ = s.client.ZRem(ctx, s.indexKey(), id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// Append adds an event and returns its index.
func (s *JobStore) Append(ctx context.Context, jobID string, event domain.Event) (int, error) {
	if err := s.exists(ctx, jobID); err != nil {
		return 0, err
	}
	event.JobID = jobID
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("encoding event: %w", err)
	}
	n, err := s.client.RPush(ctx, s.eventsKey(jobID), data).Result()
	if err != nil {
		return 0, fmt.Errorf("appending event: %w", err)
	}
	return int(n - 1), nil
}

// Events returns the events from index from onwards.
func (s *JobStore) Events(ctx context.Context, jobID string, from int) ([]domain.Event, error) {
	if err := s.exists(ctx, jobID); err != nil {
		return nil, err
	}
	if from < 0 {
		from = 0
	}
	raw, err := s.client.LRange(ctx, s.eventsKey(jobID), int64(from), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	events := make([]domain.Event, 0, len(raw))
	for i, item := range raw {
		var ev domain.Event
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, fmt.Errorf("decoding event %d: %w", from+i, err)
		}
		ev.Index = from + i
		events = append(events, ev)
	}
	return events, nil
}

// Expire removes terminal jobs last updated before the cutoff.
func (s *JobStore) Expire(ctx context.Context, before time.Time) (int, error) {
	jobs, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, job := range jobs {
		if !job.IsDone() || !job.UpdatedAt.Before(before) {
			continue
		}
		if err := s.client.Del(ctx, s.jobKey(job.ID), s.eventsKey(job.ID)).Err(); err != nil {
			return removed, fmt.Errorf("deleting job %s: %w", job.ID, err)
		}
		if err := s.client.ZRem(ctx, s.indexKey(), job.ID).Err(); err != nil {
			return removed, fmt.Errorf("unindexing job %s: %w", job.ID, err)
		}
		removed++
	}
	return removed, nil
}

func (s *JobStore) exists(ctx context.Context, jobID string) error {
	n, err := s.client.Exists(ctx, s.jobKey(jobID)).Result()
	if err != nil {
		return fmt.Errorf("checking job: %w", err)
	}
	if n == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}
