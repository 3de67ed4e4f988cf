package cleanup

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/auth/store/attempt"
	dErrors "signet/pkg/domain-errors"
)

const window = 15 * time.Minute

func newTestService(t *testing.T, store AttemptStore, opts ...Option) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(store, window, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return svc
}

func TestNewValidatesInputs(t *testing.T) {
	_, err := New(nil, window)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = New(attempt.NewInMemory(), 0)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRunOncePurgesOnlyStaleRecords(t *testing.T) {
	ctx := context.Background()
	store := attempt.NewInMemory()
	now := time.Now()

	// Stale: last attempt long before the window plus grace.
	staleAt := now.Add(-window - 2*time.Hour)
	_, err := store.RecordFailure(ctx, "stale-user", staleAt, staleAt.Add(-window))
	require.NoError(t, err)

	// Fresh: still inside the active window.
	_, err = store.RecordFailure(ctx, "fresh-user", now, now.Add(-window))
	require.NoError(t, err)

	svc := newTestService(t, store)

	res, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecordsPurged)

	gone, err := store.Get(ctx, "stale-user")
	require.NoError(t, err)
	assert.Nil(t, gone, "stale record should be purged")

	kept, err := store.Get(ctx, "fresh-user")
	require.NoError(t, err)
	require.NotNil(t, kept, "active record must survive the purge")
	assert.Equal(t, 1, kept.FailureCount)
}

func TestRunOnceKeepsRecordsInsideGrace(t *testing.T) {
	ctx := context.Background()
	store := attempt.NewInMemory()
	now := time.Now()

	// Expired window, but still inside the retention grace: operators can
	// inspect recent lockout history before the record disappears.
	recentAt := now.Add(-window - time.Minute)
	_, err := store.RecordFailure(ctx, "recent-user", recentAt, recentAt.Add(-window))
	require.NoError(t, err)

	svc := newTestService(t, store, WithRetentionGrace(time.Hour))

	res, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.RecordsPurged)
}

func TestRunOnceOnEmptyStore(t *testing.T) {
	svc := newTestService(t, attempt.NewInMemory())

	res, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.RecordsPurged)
}

type failingAttemptStore struct{}

func (failingAttemptStore) PurgeExpired(context.Context, time.Time) (int, error) {
	return 0, context.DeadlineExceeded
}

func TestRunOncePropagatesStoreErrors(t *testing.T) {
	svc := newTestService(t, failingAttemptStore{})

	res, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, res)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	svc := newTestService(t, attempt.NewInMemory(), WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
