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

const window = 15 * time.Minute

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *attempt.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = attempt.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "login_attempts")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestRecordFailureLifecycle() {
	ctx := context.Background()
	userID := "user:" + uuid.NewString()
	start := time.Now().UTC().Truncate(time.Microsecond)

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
	s.WithinDuration(later, record.LastAttemptAt, time.Millisecond)

	// A failure after the window expires restarts the count.
	afterExpiry := start.Add(window + time.Second)
	record, err = s.store.RecordFailure(ctx, userID, afterExpiry, afterExpiry.Add(-window))
	s.Require().NoError(err)
	s.Equal(1, record.FailureCount)
	s.WithinDuration(afterExpiry, record.WindowStartedAt, time.Millisecond)
}

// TestConcurrentFailureRecording verifies the conditional upsert cannot
// lose increments when many failures for one user land at once.
func (s *PostgresStoreSuite) TestConcurrentFailureRecording() {
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

func (s *PostgresStoreSuite) TestConcurrentFailuresAcrossUsers() {
	ctx := context.Background()
	const users = 10
	const failuresPerUser = 20

	now := time.Now().UTC()
	cutoff := now.Add(-window)

	ids := make([]string, users)
	for i := range ids {
		ids[i] = "user:" + uuid.NewString()
	}

	result := testutil.RunConcurrent(users*failuresPerUser, func(idx int) error {
		_, err := s.store.RecordFailure(ctx, ids[idx%users], now, cutoff)
		return err
	})

	s.Equal(int32(users*failuresPerUser), result.Successes, "no errors expected")

	for _, userID := range ids {
		record, err := s.store.Get(ctx, userID)
		s.Require().NoError(err)
		s.Require().NotNil(record)
		s.Equal(failuresPerUser, record.FailureCount,
			"user %s should have %d failures", userID, failuresPerUser)
	}
}

func (s *PostgresStoreSuite) TestClear() {
	ctx := context.Background()
	userID := "user:" + uuid.NewString()
	now := time.Now().UTC()

	_, err := s.store.RecordFailure(ctx, userID, now, now.Add(-window))
	s.Require().NoError(err)

	s.Require().NoError(s.store.Clear(ctx, userID))

	record, err := s.store.Get(ctx, userID)
	s.Require().NoError(err)
	s.Nil(record)

	// Clearing an absent row is not an error.
	s.NoError(s.store.Clear(ctx, userID))
}

func (s *PostgresStoreSuite) TestPurgeExpired() {
	ctx := context.Background()
	now := time.Now().UTC()

	stale := now.Add(-2 * time.Hour)
	_, err := s.store.RecordFailure(ctx, "stale:"+uuid.NewString(), stale, stale.Add(-window))
	s.Require().NoError(err)

	freshID := "fresh:" + uuid.NewString()
	_, err = s.store.RecordFailure(ctx, freshID, now, now.Add(-window))
	s.Require().NoError(err)

	purged, err := s.store.PurgeExpired(ctx, now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(1, purged)

	record, err := s.store.Get(ctx, freshID)
	s.Require().NoError(err)
	s.NotNil(record)
}
