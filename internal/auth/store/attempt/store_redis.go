package attempt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"signet/internal/auth/models"
)

const attemptKeyPrefix = "login_attempts:"

// recordFailureScript applies the conditional increment server-side so the
// read-modify-write is one atomic round trip. Timestamps travel as unix
// milliseconds. Returns {failure_count, window_started_at}.
var recordFailureScript = redis.NewScript(`
local start = tonumber(redis.call('HGET', KEYS[1], 'window_started_at'))
local now = tonumber(ARGV[1])
local cutoff = tonumber(ARGV[2])
local count
if start and start >= cutoff then
	count = redis.call('HINCRBY', KEYS[1], 'failure_count', 1)
else
	redis.call('HSET', KEYS[1], 'failure_count', 1, 'window_started_at', now)
	start = now
	count = 1
end
redis.call('HSET', KEYS[1], 'last_attempt_at', now)
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return {count, start}
`)

// RedisStore keeps attempt records in redis hashes. Records carry a key
// TTL, so expired windows age out without a cleanup pass.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis constructs a redis-backed attempt store. The ttl should cover
// the lockout window plus any retention grace; it is refreshed on every
// recorded failure.
func NewRedis(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*models.LoginAttemptRecord, error) {
	fields, err := s.rdb.HGetAll(ctx, attemptKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get login attempts: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return recordFromFields(userID, fields)
}

// RecordFailure counts one failed sign-in for userID via a server-side
// script. The caller supplies the window cutoff (now minus the window
// length) to keep business rules out of the store.
func (s *RedisStore) RecordFailure(ctx context.Context, userID string, now, cutoff time.Time) (*models.LoginAttemptRecord, error) {
	res, err := recordFailureScript.Run(ctx, s.rdb,
		[]string{attemptKey(userID)},
		now.UnixMilli(), cutoff.UnixMilli(), s.ttl.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("record login failure: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("record login failure: unexpected script reply of %d values", len(res))
	}
	return &models.LoginAttemptRecord{
		UserID:          userID,
		FailureCount:    int(res[0]),
		WindowStartedAt: time.UnixMilli(res[1]).UTC(),
		LastAttemptAt:   now,
	}, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, attemptKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear login attempts: %w", err)
	}
	return nil
}

// PurgeExpired is a no-op for redis: entries expire via their key TTL.
func (s *RedisStore) PurgeExpired(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func attemptKey(userID string) string {
	return attemptKeyPrefix + userID
}

func recordFromFields(userID string, fields map[string]string) (*models.LoginAttemptRecord, error) {
	count, err := strconv.Atoi(fields["failure_count"])
	if err != nil {
		return nil, fmt.Errorf("parse login attempts failure_count: %w", err)
	}
	start, err := strconv.ParseInt(fields["window_started_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse login attempts window_started_at: %w", err)
	}
	last, err := strconv.ParseInt(fields["last_attempt_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse login attempts last_attempt_at: %w", err)
	}
	return &models.LoginAttemptRecord{
		UserID:          userID,
		FailureCount:    count,
		WindowStartedAt: time.UnixMilli(start).UTC(),
		LastAttemptAt:   time.UnixMilli(last).UTC(),
	}, nil
}
