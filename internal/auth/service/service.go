// Package service implements the authentication flows: sign-up, sign-in with
// lockout accounting, token refresh, sign-out, and the user views. Handlers
// stay thin; every business rule lives here, behind narrow collaborator
// interfaces so each flow is testable with mocks.
package service

import (
	"context"
	"errors"
	"log/slog"

	"signet/internal/auth/cookie"
	"signet/internal/auth/metrics"
	"signet/internal/auth/models"
	"signet/internal/auth/tracer"
	"signet/internal/platform/middleware"
	"signet/internal/sentinel"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

type Service struct {
	users   UserStore
	lockout LockoutTracker
	hasher  PasswordHasher
	tokens  TokenIssuer
	cookies CookieBuilder
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

// AuthResult carries everything the transport layer needs after a successful
// sign-in or refresh: the body payload and the cookie specifications. The
// cookies never appear in JSON output.
type AuthResult struct {
	User    *models.UserResult      `json:"user"`
	Tokens  *models.TokenPairResult `json:"tokens"`
	Cookies []cookie.Spec           `json:"-"`
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

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(users UserStore, lockoutTracker LockoutTracker, hasher PasswordHasher, tokens TokenIssuer, cookies CookieBuilder, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "user store is required")
	}
	if lockoutTracker == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "lockout tracker is required")
	}
	if hasher == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "password hasher is required")
	}
	if tokens == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "token issuer is required")
	}
	if cookies == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "cookie builder is required")
	}

	svc := &Service{
		users:   users,
		lockout: lockoutTracker,
		hasher:  hasher,
		tokens:  tokens,
		cookies: cookies,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	return svc, nil
}

// requireCaller resolves the authenticated subject from the request context
// into a stored user record. Authorization decisions read the record rather
// than token claims so demotions and deactivations apply immediately.
func (s *Service) requireCaller(ctx context.Context) (*models.User, error) {
	subject := middleware.GetUserID(ctx)
	if subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	userID, err := id.ParseUserID(subject)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	caller, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load caller")
	}
	if !caller.IsActive() {
		return nil, dErrors.New(dErrors.CodeAccountInactive, "account is inactive")
	}
	return caller, nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

// authFailure logs a failed authentication. Client failures (wrong password,
// locked account) log at warn; dependency faults log at error.
func (s *Service) authFailure(ctx context.Context, reason string, isError bool, attributes ...any) {
	s.incrementSignIns(reason)
	if s.logger == nil {
		return
	}
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", "auth_failed", "reason", reason, "log_type", "standard")
	if isError {
		s.logger.ErrorContext(ctx, "auth_failed", args...)
		return
	}
	s.logger.WarnContext(ctx, "auth_failed", args...)
}

func (s *Service) incrementSignIns(result string) {
	if s.metrics != nil {
		s.metrics.IncrementSignIns(result)
	}
}

func (s *Service) incrementUsersCreated() {
	if s.metrics != nil {
		s.metrics.IncrementUsersCreated()
	}
}

func (s *Service) incrementTokensIssued() {
	if s.metrics != nil {
		s.metrics.IncrementTokensIssued(models.TokenKindAccess.String())
		s.metrics.IncrementTokensIssued(models.TokenKindRefresh.String())
	}
}

func (s *Service) incrementTokenVerifications(kind models.TokenKind, result string) {
	if s.metrics != nil {
		s.metrics.IncrementTokenVerifications(kind.String(), result)
	}
}

func (s *Service) observePasswordHashDuration(seconds float64) {
	if s.metrics != nil {
		s.metrics.ObservePasswordHashDuration(seconds)
	}
}

func (s *Service) observeSignInDuration(ms float64) {
	if s.metrics != nil {
		s.metrics.ObserveSignInDuration(ms)
	}
}
