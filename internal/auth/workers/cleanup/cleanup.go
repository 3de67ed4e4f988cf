// Package cleanup periodically purges sign-in failure records whose window
// has lapsed. Expired records can no longer influence a lockout decision;
// purging them just keeps the attempt store bounded.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"signet/internal/auth/metrics"
	dErrors "signet/pkg/domain-errors"
)

// AttemptStore exposes purging for stale attempt records.
type AttemptStore interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// Result summarizes a single cleanup run.
type Result struct {
	RecordsPurged int
	Duration      time.Duration
}

// Service removes attempt records on a fixed interval. The purge cutoff is
// the window length plus a retention grace, so a record is only dropped once
// it has been irrelevant for a while and operators can still inspect recent
// lockout history.
type Service struct {
	store    AttemptStore
	window   time.Duration
	grace    time.Duration
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithRetentionGrace(grace time.Duration) Option {
	return func(s *Service) {
		if grace >= 0 {
			s.grace = grace
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs the cleanup worker. window must match the lockout window
// the attempt records were written under.
func New(store AttemptStore, window time.Duration, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "attempt store is required")
	}
	if window <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "lockout window must be positive")
	}
	svc := &Service{
		store:    store,
		window:   window,
		grace:    time.Hour,
		interval: 15 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Start runs cleanup on the interval until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			startTime := time.Now()
			res, err := s.RunOnce(ctx)
			duration := time.Since(startTime)

			if err != nil {
				s.logger.ErrorContext(ctx, "attempt_cleanup_failed",
					"error", err,
					"duration_ms", duration.Milliseconds(),
				)
				if s.metrics != nil {
					s.metrics.IncrementCleanupRuns("error")
					s.metrics.ObserveCleanupDuration(duration.Seconds())
				}
				continue
			}

			res.Duration = duration
			s.logger.InfoContext(ctx, "attempt_cleanup_completed",
				"records_purged", res.RecordsPurged,
				"duration_ms", duration.Milliseconds(),
			)
			if s.metrics != nil {
				s.metrics.IncrementAttemptRecordsPurged(res.RecordsPurged)
				s.metrics.IncrementCleanupRuns("success")
				s.metrics.ObserveCleanupDuration(duration.Seconds())
			}

		case <-ctx.Done():
			s.logger.InfoContext(ctx, "attempt cleanup worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single purge. Logging is handled by the caller (Start).
func (s *Service) RunOnce(ctx context.Context) (*Result, error) {
	cutoff := time.Now().Add(-(s.window + s.grace))
	purged, err := s.store.PurgeExpired(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return &Result{RecordsPurged: purged}, nil
}
