package service

import (
	"context"
	"errors"

	"signet/internal/auth/models"
	"signet/internal/auth/tracer"
	"signet/internal/sentinel"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/middleware/requesttime"
)

// Refresh exchanges a valid refresh token for a fresh pair. The subject is
// reloaded from the store on every exchange so a deleted or deactivated
// account cannot keep rotating pairs until its refresh token expires.
func (s *Service) Refresh(ctx context.Context, req *models.RefreshRequest) (*AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRefresh)
	var err error
	defer func() { span.End(err) }()

	now := requesttime.Now(ctx)

	claims, err := s.tokens.Verify(req.RefreshToken, models.TokenKindRefresh, now)
	if err != nil {
		s.incrementTokenVerifications(models.TokenKindRefresh, "failure")
		s.authFailure(ctx, refreshFailureReason(err), false)
		return nil, err
	}
	s.incrementTokenVerifications(models.TokenKindRefresh, "success")

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		s.authFailure(ctx, "refresh_token_bad_subject", false, "subject", claims.Subject)
		err = dErrors.New(dErrors.CodeUnauthorized, "invalid refresh token")
		return nil, err
	}
	span.SetAttributes(tracer.String(tracer.AttrUserID, claims.Subject))

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// The token outlived the account.
			s.authFailure(ctx, "refresh_subject_missing", false, "user_id", claims.Subject)
			err = dErrors.New(dErrors.CodeUnauthorized, "invalid refresh token")
			return nil, err
		}
		s.authFailure(ctx, "user_lookup_failed", true, "user_id", claims.Subject, "error", err)
		err = dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load account")
		return nil, err
	}

	if !user.IsActive() {
		s.authFailure(ctx, "account_inactive", false, "user_id", claims.Subject)
		err = dErrors.New(dErrors.CodeAccountInactive, "account is inactive")
		return nil, err
	}

	result, err := s.grantTokens(user, now)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "token_refreshed", "user_id", claims.Subject)

	return result, nil
}

// refreshFailureReason translates a verification error into its log reason.
func refreshFailureReason(err error) string {
	for _, entry := range refreshFailureReasons {
		if errors.Is(err, entry.sentinel) {
			return entry.reason
		}
	}
	return "refresh_token_invalid"
}
