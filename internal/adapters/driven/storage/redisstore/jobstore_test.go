package redisstore

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// fakeClient is an in-memory Client that keeps just enough redis semantics
// for the job store.
type fakeClient struct {
	strings map[string]string
	lists   map[string][]string
	zsets   map[string]map[string]float64
	ttls    map[string]time.Duration
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		strings: make(map[string]string),
		lists:   make(map[string][]string),
		zsets:   make(map[string]map[string]float64),
		ttls:    make(map[string]time.Duration),
	}
}

func encode(v any) string {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func (f *fakeClient) SetNX(_ context.Context, key string, value any, exp time.Duration) *redis.BoolCmd {
	if _, ok := f.strings[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.strings[key] = encode(value)
	if exp > 0 {
		f.ttls[key] = exp
	}
	return redis.NewBoolResult(true, nil)
}

func (f *fakeClient) SetXX(_ context.Context, key string, value any, exp time.Duration) *redis.BoolCmd {
	if _, ok := f.strings[key]; !ok {
		return redis.NewBoolResult(false, nil)
	}
	f.strings[key] = encode(value)
	if exp > 0 {
		f.ttls[key] = exp
	}
	return redis.NewBoolResult(true, nil)
}

func (f *fakeClient) Get(_ context.Context, key string) *redis.StringCmd {
	val, ok := f.strings[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.strings[k]; ok {
			delete(f.strings, k)
			n++
		}
		if _, ok := f.lists[k]; ok {
			delete(f.lists, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeClient) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.strings[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeClient) Expire(_ context.Context, key string, exp time.Duration) *redis.BoolCmd {
	f.ttls[key] = exp
	return redis.NewBoolResult(true, nil)
}

func (f *fakeClient) RPush(_ context.Context, key string, values ...any) *redis.IntCmd {
	for _, v := range values {
		f.lists[key] = append(f.lists[key], encode(v))
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeClient) LRange(_ context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	list := f.lists[key]
	if stop < 0 {
		stop = int64(len(list)) + stop
	}
	if start >= int64(len(list)) || start > stop {
		return redis.NewStringSliceResult(nil, nil)
	}
	return redis.NewStringSliceResult(append([]string(nil), list[start:stop+1]...), nil)
}

func (f *fakeClient) ZAdd(_ context.Context, key string, members ...redis.Z) *redis.IntCmd {
	if f.zsets[key] == nil {
		f.zsets[key] = make(map[string]float64)
	}
	for _, m := range members {
		f.zsets[key][encode(m.Member)] = m.Score
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeClient) ZRange(_ context.Context, key string, _, _ int64) *redis.StringSliceCmd {
	set := f.zsets[key]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		if set[members[i]] == set[members[j]] {
			return members[i] < members[j]
		}
		return set[members[i]] < set[members[j]]
	})
	return redis.NewStringSliceResult(members, nil)
}

func (f *fakeClient) ZRem(_ context.Context, key string, members ...any) *redis.IntCmd {
	for _, m := range members {
		delete(f.zsets[key], encode(m))
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func testJob(id string, created time.Time) domain.Job {
	return domain.Job{
		ID:        id,
		ChapterID: "ch_" + id,
		State:     domain.StateInitialized,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestJobStore_CreateGetUpdate(t *testing.T) {
	client := newFakeClient()
	store := NewJobStore(client, "", time.Hour)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, testJob("j1", now)))
	assert.ErrorIs(t, store.Create(ctx, testJob("j1", now)), domain.ErrJobExists)
	assert.Contains(t, client.strings, "digest:job:j1")

	got, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "ch_j1", got.ChapterID)
	assert.True(t, got.CreatedAt.Equal(now))

	got.State = domain.StateStructuring
	require.NoError(t, store.Update(ctx, *got))
	assert.NotContains(t, client.ttls, "digest:job:j1")

	got.State = domain.StateCompleted
	got.Saved = true
	require.NoError(t, store.Update(ctx, *got))
	assert.Equal(t, time.Hour, client.ttls["digest:job:j1"])
	assert.Equal(t, time.Hour, client.ttls["digest:job:j1:events"])

	got, err = store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.True(t, got.Saved)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.ErrorIs(t, store.Update(ctx, testJob("missing", now)), domain.ErrJobNotFound)
}

func TestJobStore_AppendAndEvents(t *testing.T) {
	store := NewJobStore(newFakeClient(), "test:", 0)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Create(ctx, testJob("j1", now)))

	for i, phase := range []domain.State{domain.StateStructuring, domain.StateExtracting, domain.StateSynthesizing} {
		idx, err := store.Append(ctx, "j1", domain.Event{Phase: phase, Message: "m", Status: domain.EventInProgress, Time: now})
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}

	events, err := store.Events(ctx, "j1", 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Index)
	assert.Equal(t, domain.StateExtracting, events[0].Phase)
	assert.Equal(t, "j1", events[1].JobID)

	events, err = store.Events(ctx, "j1", 3)
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = store.Append(ctx, "missing", domain.Event{})
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	_, err = store.Events(ctx, "missing", 0)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobStore_ListAndExpire(t *testing.T) {
	client := newFakeClient()
	store := NewJobStore(client, "", 0)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	done := testJob("done", base)
	done.State = domain.StateFailed
	running := testJob("running", base.Add(time.Second))
	for _, j := range []domain.Job{running, done} {
		require.NoError(t, store.Create(ctx, j))
	}
	_, err := store.Append(ctx, "done", domain.Event{Phase: domain.StateFailed, Status: domain.EventError})
	require.NoError(t, err)

	// A record that vanished by TTL is skipped and unindexed.
	require.NoError(t, client.ZAdd(ctx, "digest:jobs", redis.Z{Score: 0, Member: "ghost"}).Err())

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "done", list[0].ID)
	assert.Equal(t, "running", list[1].ID)
	assert.NotContains(t, client.zsets["digest:jobs"], "ghost")

	removed, err := store.Expire(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NotContains(t, client.strings, "digest:job:done")
	assert.NotContains(t, client.lists, "digest:job:done:events")

	_, err = store.Get(ctx, "running")
	assert.NoError(t, err)
}
