package service

import (
	"context"
	"errors"
	"time"

	"signet/internal/auth/cookie"
	"signet/internal/auth/device"
	"signet/internal/auth/models"
	"signet/internal/auth/password"
	"signet/internal/auth/tracer"
	"signet/internal/platform/middleware"
	"signet/internal/platform/privacy"
	"signet/internal/sentinel"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/middleware/requesttime"
)

// SignIn authenticates a normalized email/password pair and, on success,
// returns the user view, a fresh token pair, and the cookie specs.
//
// The order of checks is deliberate:
//  1. unknown email burns a dummy verification so timing stays flat, and
//     creates no attempt record;
//  2. a locked account is rejected before any hashing;
//  3. a wrong password is counted even when the caller has already gone away;
//  4. an inactive account answers after the password check, with no failure
//     accounting either way.
func (s *Service) SignIn(ctx context.Context, req *models.SignInRequest) (*AuthResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanSignIn,
		tracer.String(tracer.AttrEmailHash, tracer.HashEmail(req.Email)),
	)
	var err error
	defer func() {
		span.End(err)
		s.observeSignInDuration(float64(time.Since(start).Milliseconds()))
	}()

	now := requesttime.Now(ctx)

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.hasher.DummyVerify(req.Password)
			s.authFailure(ctx, "unknown_email", false,
				"email_hash", tracer.HashEmail(req.Email),
			)
			err = dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
			return nil, err
		}
		s.authFailure(ctx, "user_lookup_failed", true, "error", err)
		err = dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to look up account")
		return nil, err
	}

	userID := user.ID.String()
	span.SetAttributes(tracer.String(tracer.AttrUserID, userID))

	decision, err := s.lockout.Check(ctx, userID, now)
	if err != nil {
		s.authFailure(ctx, "lockout_check_failed", true, "user_id", userID, "error", err)
		return nil, err
	}
	if !decision.Allowed {
		span.SetAttributes(
			tracer.Int64(tracer.AttrFailureCount, int64(decision.FailureCount)),
			tracer.Duration(tracer.AttrRetryAfterMs, decision.RetryAfter),
		)
		s.authFailure(ctx, "account_locked", false,
			"user_id", userID,
			"failure_count", decision.FailureCount,
			"retry_after", decision.RetryAfter.Round(time.Second).String(),
		)
		err = dErrors.Wrap(
			&AccountLockedError{RetryAfter: decision.RetryAfter},
			dErrors.CodeAccountLocked, "account temporarily locked",
		)
		return nil, err
	}

	hashStart := time.Now()
	verifyErr := s.hasher.Verify(req.Password, user.PasswordHash)
	s.observePasswordHashDuration(time.Since(hashStart).Seconds())
	if verifyErr != nil {
		err = s.handleVerifyFailure(ctx, span, verifyErr, user, now)
		return nil, err
	}

	if !user.IsActive() {
		// The credentials were right, the account is just switched off.
		// No failure accounting: locking a disabled account would only mask
		// its real state.
		s.authFailure(ctx, "account_inactive", false, "user_id", userID)
		err = dErrors.New(dErrors.CodeAccountInactive, "account is inactive")
		return nil, err
	}

	if clearErr := s.lockout.Clear(ctx, userID); clearErr != nil {
		// Sign-in proceeds; a failed clear only risks a premature lock later.
		s.logger.WarnContext(ctx, "failed to clear sign-in failures",
			"user_id", userID, "error", clearErr)
	}
	if updateErr := s.users.UpdateLastSignIn(ctx, user.ID, now); updateErr != nil {
		s.logger.WarnContext(ctx, "failed to stamp last sign-in",
			"user_id", userID, "error", updateErr)
	} else {
		user.RecordSignIn(now)
	}

	result, err := s.grantTokens(user, now)
	if err != nil {
		return nil, err
	}

	userAgent := middleware.GetUserAgent(ctx)
	s.logAudit(ctx, "user_signed_in",
		"user_id", userID,
		"client_ip", privacy.AnonymizeIP(middleware.GetClientIP(ctx)),
		"device", device.Describe(userAgent),
		"device_fingerprint", device.Fingerprint(userAgent),
	)
	s.incrementSignIns("success")

	return result, nil
}

// SignOut clears both token cookies. Tokens are stateless, so there is
// nothing to revoke server-side; already-issued pairs simply age out.
func (s *Service) SignOut(ctx context.Context) []cookie.Spec {
	if subject := middleware.GetUserID(ctx); subject != "" {
		s.logAudit(ctx, "user_signed_out", "user_id", subject)
	}
	return []cookie.Spec{
		s.cookies.Expire(models.TokenKindAccess),
		s.cookies.Expire(models.TokenKindRefresh),
	}
}

// handleVerifyFailure records the failed attempt and shapes the client
// answer. Recording runs on a detached context: a caller that gives up
// mid-hash must not also escape the accounting.
func (s *Service) handleVerifyFailure(ctx context.Context, span tracer.Span, verifyErr error, user *models.User, now time.Time) error {
	userID := user.ID.String()

	reason := "password_mismatch"
	isError := false
	if errors.Is(verifyErr, password.ErrMalformedHash) {
		// The stored hash is unreadable. That is a data fault worth an alert,
		// but the client still sees a routine authentication failure.
		reason = "malformed_stored_hash"
		isError = true
	}

	record, recordErr := s.lockout.RecordFailure(context.WithoutCancel(ctx), userID, now)
	if recordErr != nil {
		s.logger.ErrorContext(ctx, "failed to record sign-in failure",
			"user_id", userID, "error", recordErr)
	}

	attrs := []any{
		"user_id", userID,
		"client_ip", privacy.AnonymizeIP(middleware.GetClientIP(ctx)),
		"device_fingerprint", device.Fingerprint(middleware.GetUserAgent(ctx)),
	}
	if record != nil {
		attrs = append(attrs, "failure_count", record.FailureCount)
		span.AddEvent(tracer.EventFailureRecorded,
			tracer.Int64(tracer.AttrFailureCount, int64(record.FailureCount)))
	}
	s.authFailure(ctx, reason, isError, attrs...)

	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

// grantTokens issues a fresh pair and the matching cookie specs.
func (s *Service) grantTokens(user *models.User, now time.Time) (*AuthResult, error) {
	pair, err := s.tokens.IssuePair(user.ID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token pair")
	}
	s.incrementTokensIssued()

	return &AuthResult{
		User: models.NewUserResult(user),
		Tokens: &models.TokenPairResult{
			Access:           pair.Access,
			Refresh:          pair.Refresh,
			AccessExpiresAt:  pair.AccessExpiresAt,
			RefreshExpiresAt: pair.RefreshExpiresAt,
		},
		Cookies: []cookie.Spec{
			s.cookies.Build(models.TokenKindAccess, pair.Access, pair.AccessExpiresAt, now),
			s.cookies.Build(models.TokenKindRefresh, pair.Refresh, pair.RefreshExpiresAt, now),
		},
	}, nil
}
