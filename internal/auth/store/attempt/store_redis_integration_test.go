//go:build integration

package attempt_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"signet/internal/auth/store/attempt"
	"signet/pkg/testutil"
	"signet/pkg/testutil/containers"
)

const redisRecordTTL = window + time.Hour

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *attempt.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = attempt.NewRedis(s.redis.Client, redisRecordTTL)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRecordFailureLifecycle() {
	ctx := context.Background()
	userID := "user:" + uuid.NewString()
	start := time.Now().UTC().Truncate(time.Millisecond)

	record, err := s.store.RecordFailure(ctx, userID, start, start.Add(-window))
	s.Require().NoError(err)
	s.Equal(1, record.FailureCount)
	s.WithinDuration(start, record.WindowStartedAt, time.Millisecond)

	// A failure inside the window increments without moving the anchor.
	later := start.Add(5 * time.Minute)
	record, err = s.store.RecordFailure(ctx, userID, later, later.Add(-window))
	s.Require().NoError(err)
	s.Equal(2, record.FailureCount)
	s.WithinDuration(start, record.WindowStartedAt, time.Millisecond)

	// A failure after the window expires restarts the count.
	afterExpiry := start.Add(window + time.Second)
	record, err = s.store.RecordFailure(ctx, userID, afterExpiry, afterExpiry.Add(-window))
	s.Require().NoError(err)
	s.Equal(1, record.FailureCount)
	s.WithinDuration(afterExpiry, record.WindowStartedAt, time.Millisecond)

	fetched, err := s.store.Get(ctx, userID)
	s.Require().NoError(err)
	s.Require().NotNil(fetched)
	s.Equal(1, fetched.FailureCount)
	s.WithinDuration(afterExpiry, fetched.WindowStartedAt, time.Millisecond)
	s.WithinDuration(afterExpiry, fetched.LastAttemptAt, time.Millisecond)
}

// TestConcurrentFailureRecording verifies the server-side script cannot
// lose increments when many failures for one user land at once.
func (s *RedisStoreSuite) TestConcurrentFailureRecording() {
	ctx := context.Background()
	userID := "user:" + uuid.NewString()
	const goroutines = 100

	now := time.Now().UTC()
	cutoff := now.Add(-window)

	result := testutil.RunConcurrent(goroutines, func(_ int) error {
		_, err := s.store.RecordFailure(ctx, userID, now, cutoff)
		return err
	})

	s.Equal(int32(goroutines), result.Successes, "no errors expected")

	record, err := s.store.Get(ctx, userID)
	s.Require().NoError(err)
	s.Require().NotNil(record)
	s.Equal(goroutines, record.FailureCount, "failure count should equal number of concurrent calls")
}

// TestRecordsExpireOnTheirOwn pins the property the server relies on when
// it skips the cleanup worker for this backend: every write leaves a live
// TTL on the key, and purging is a no-op.
func (s *RedisStoreSuite) TestRecordsExpireOnTheirOwn() {
	ctx := context.Background()
	userID := "user:" + uuid.NewString()
	now := time.Now().UTC()

	_, err := s.store.RecordFailure(ctx, userID, now, now.Add(-window))
	s.Require().NoError(err)

	ttl, err := s.redis.Client.PTTL(ctx, "login_attempts:"+userID).Result()
	s.Require().NoError(err)
	s.Positive(ttl)
	s.LessOrEqual(ttl, redisRecordTTL)

	purged, err := s.store.PurgeExpired(ctx, now)
	s.Require().NoError(err)
	s.Zero(purged)
}

func (s *RedisStoreSuite) TestClear() {
	ctx := context.Background()
	userID := "user:" + uuid.NewString()
	now := time.Now().UTC()

	_, err := s.store.RecordFailure(ctx, userID, now, now.Add(-window))
	s.Require().NoError(err)

	s.Require().NoError(s.store.Clear(ctx, userID))

	record, err := s.store.Get(ctx, userID)
	s.Require().NoError(err)
	s.Nil(record)

	// Clearing an absent key is not an error.
	s.NoError(s.store.Clear(ctx, userID))
}

func (s *RedisStoreSuite) TestGetAbsentUser() {
	record, err := s.store.Get(context.Background(), "user:"+uuid.NewString())
	s.Require().NoError(err)
	s.Nil(record)
}
