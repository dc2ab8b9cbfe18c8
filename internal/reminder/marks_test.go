package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	keys map[string]time.Duration
	err  error
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ any, ttl time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			delete(f.keys, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisMarks(t *testing.T) {
	fake := &fakeRedis{keys: map[string]time.Duration{}}
	m := NewRedisMarks(RedisMarksOpts{Client: fake})
	ctx := context.Background()
	c := Candidate{RecordType: RecordTask, RecordID: "T1"}

	won, err := m.Claim(ctx, "task:T1:2024-07-02", c, now)
	require.NoError(t, err)
	assert.True(t, won)
	assert.Equal(t, DefaultMarkTTL, fake.keys["csms:reminder:task:T1:2024-07-02"])

	won, err = m.Claim(ctx, "task:T1:2024-07-02", c, now)
	require.NoError(t, err)
	assert.False(t, won)

	require.NoError(t, m.Release(ctx, "task:T1:2024-07-02"))
	require.NoError(t, m.Release(ctx, "task:T1:2024-07-02"), "releasing twice is fine")

	won, err = m.Claim(ctx, "task:T1:2024-07-02", c, now)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestRedisMarks_Errors(t *testing.T) {
	fake := &fakeRedis{keys: map[string]time.Duration{}, err: errors.New("connection refused")}
	m := NewRedisMarks(RedisMarksOpts{Client: fake, Prefix: "x:", TTL: time.Hour})

	_, err := m.Claim(context.Background(), "k", Candidate{}, now)
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
	assert.ErrorIs(t, m.Release(context.Background(), "k"), apperr.ErrUpstreamUnavailable)
}

func TestDBMarks(t *testing.T) {
	gdb := testDB(t)
	m := DBMarks{DB: gdb}
	ctx := context.Background()
	c := Candidate{RecordType: RecordSchedule, RecordID: "S1", MilestoneDate: now}

	won, err := m.Claim(ctx, "schedule:S1:2024-07-01", c, now)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = m.Claim(ctx, "schedule:S1:2024-07-01", c, now)
	require.NoError(t, err)
	assert.False(t, won)

	require.NoError(t, m.Release(ctx, "schedule:S1:2024-07-01"))
	won, err = m.Claim(ctx, "schedule:S1:2024-07-01", c, now)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestDBMarks_ClosedDB(t *testing.T) {
	gdb := testDB(t)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = DBMarks{DB: gdb}.Claim(context.Background(), "k", Candidate{}, now)
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
}
