package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/models"
)

// MarkStore persists the "last notified" marker per idempotency key.
//
// Claim atomically records key and reports whether this caller won it. A
// false result with a nil error means another run already claimed it.
// Release undoes a claim whose send failed so the next run retries.
type MarkStore interface {
	Claim(ctx context.Context, key string, c Candidate, at time.Time) (bool, error)
	Release(ctx context.Context, key string) error
}

// DBMarks stores marks in the reminder_marks table.
type DBMarks struct {
	DB *gorm.DB
}

// Claim inserts the mark, doing nothing if the key exists.
func (m DBMarks) Claim(ctx context.Context, key string, c Candidate, at time.Time) (bool, error) {
	mark := models.ReminderMark{
		Key:           key,
		RecordType:    string(c.RecordType),
		RecordID:      c.RecordID,
		MilestoneDate: c.Date(),
		NotifiedAt:    at,
	}
	res := m.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&mark)
	if res.Error != nil {
		return false, apperr.Upstream("claim mark "+key, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Release deletes the mark.
func (m DBMarks) Release(ctx context.Context, key string) error {
	err := m.DB.WithContext(ctx).Delete(&models.ReminderMark{Key: key}).Error
	if err != nil {
		return apperr.Upstream("release mark "+key, err)
	}
	return nil
}

// redisClient is the subset of go-redis used for marks.
type redisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// DefaultMarkTTL keeps redis marks well past any lookahead window.
const DefaultMarkTTL = 45 * 24 * time.Hour

// RedisMarks stores marks as redis keys with a TTL.
type RedisMarks struct {
	client redisClient
	prefix string
	ttl    time.Duration
}

// RedisMarksOpts configures NewRedisMarks.
type RedisMarksOpts struct {
	Addr     string
	Password string
	Prefix   string        // defaults to "csms:reminder:"
	TTL      time.Duration // defaults to DefaultMarkTTL
	Client   redisClient   // for tests; Addr is ignored when set
}

// NewRedisMarks connects a redis-backed MarkStore.
func NewRedisMarks(opts RedisMarksOpts) *RedisMarks {
	client := opts.Client
	if client == nil {
		client = redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password})
	}
	if opts.Prefix == "" {
		opts.Prefix = "csms:reminder:"
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultMarkTTL
	}
	return &RedisMarks{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

// Claim sets the key only if absent.
func (m *RedisMarks) Claim(ctx context.Context, key string, c Candidate, at time.Time) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.prefix+key, at.UTC().Format(time.RFC3339), m.ttl).Result()
	if err != nil {
		return false, apperr.Upstream("claim mark "+key, err)
	}
	return ok, nil
}

// Release deletes the key. A missing key is not an error.
func (m *RedisMarks) Release(ctx context.Context, key string) error {
	if err := m.client.Del(ctx, m.prefix+key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return apperr.Upstream("release mark "+key, err)
	}
	return nil
}
