// Package lockout tracks consecutive sign-in failures per account and decides
// when an account is temporarily locked. The window is anchored to the first
// failure; once the failure count reaches the threshold inside the window,
// checks are rejected until the window runs out. A successful sign-in clears
// the record.
package lockout

import (
	"context"
	"log/slog"
	"time"

	"signet/internal/auth/metrics"
	"signet/internal/auth/models"
	"signet/internal/platform/config"
	"signet/internal/platform/middleware"
	dErrors "signet/pkg/domain-errors"
)

// Store is the persistence contract for failure records. Get returns nil for
// accounts with no record. RecordFailure must be a single atomic conditional
// update: it restarts the window when the stored one began before cutoff,
// otherwise it increments in place.
type Store interface {
	Get(ctx context.Context, userID string) (*models.LoginAttemptRecord, error)
	RecordFailure(ctx context.Context, userID string, now, cutoff time.Time) (*models.LoginAttemptRecord, error)
	Clear(ctx context.Context, userID string) error
}

// Decision is the outcome of a lockout check.
type Decision struct {
	Allowed      bool
	FailureCount int
	// RetryAfter is how long the lock still holds. Zero when allowed.
	RetryAfter time.Duration
}

type Service struct {
	store   Store
	cfg     config.Lockout
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, cfg config.Lockout, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "attempt store is required")
	}
	if cfg.Window <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "lockout window must be positive")
	}
	if cfg.Threshold < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "lockout threshold must be at least 1")
	}

	svc := &Service{
		store: store,
		cfg:   cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check reports whether the account may attempt a sign-in at now. It never
// mutates state, so a locked account can be rejected without touching the
// password hasher.
func (s *Service) Check(ctx context.Context, userID string, now time.Time) (Decision, error) {
	record, err := s.store.Get(ctx, userID)
	if err != nil {
		return Decision{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load attempt record")
	}

	// No failures on record, or the window has lapsed. A stale record is
	// equivalent to a clear one; the store resets it on the next failure.
	if !record.HasFailures() || record.WindowExpired(now, s.cfg.Window) {
		return Decision{Allowed: true}, nil
	}

	if record.FailureCount >= s.cfg.Threshold {
		return Decision{
			Allowed:      false,
			FailureCount: record.FailureCount,
			RetryAfter:   record.Remaining(now, s.cfg.Window),
		}, nil
	}

	return Decision{Allowed: true, FailureCount: record.FailureCount}, nil
}

// RecordFailure counts a failed sign-in at now. The store resolves the
// restart-or-increment choice atomically against cutoff so concurrent
// failures cannot lose updates.
func (s *Service) RecordFailure(ctx context.Context, userID string, now time.Time) (*models.LoginAttemptRecord, error) {
	cutoff := now.Add(-s.cfg.Window)
	record, err := s.store.RecordFailure(ctx, userID, now, cutoff)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to record sign-in failure")
	}

	// The count crossing the threshold is the lock transition; later failures
	// inside the window keep the account locked but are not new trips.
	if record.FailureCount == s.cfg.Threshold {
		s.logAudit(ctx, "account_locked",
			"user_id", userID,
			"failure_count", record.FailureCount,
			"window_started_at", record.WindowStartedAt,
		)
		s.incrementLockoutsTriggered()
	}

	return record, nil
}

// Clear removes the failure record after a successful sign-in. Clearing an
// account with no record is not an error.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to clear sign-in failures")
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	args := append(attrs, "event", event, "log_type", "audit")
	s.logger.WarnContext(ctx, event, args...)
}

func (s *Service) incrementLockoutsTriggered() {
	if s.metrics != nil {
		s.metrics.IncrementLockoutsTriggered()
	}
}
