package service

import (
	"context"
	"errors"
	"time"

	"signet/internal/auth/models"
	"signet/internal/auth/tracer"
	"signet/internal/platform/middleware"
	"signet/internal/platform/privacy"
	"signet/internal/sentinel"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/middleware/requesttime"
)

// SignUp registers a new account. The request arrives normalized and
// validated by the handler; this layer enforces the semantic rules: admin
// accounts only come from admin callers (the seeder bootstraps the first one
// through the store directly), and duplicate emails surface as a conflict.
func (s *Service) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.UserResult, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanSignUp,
		tracer.String(tracer.AttrEmailHash, tracer.HashEmail(req.Email)),
	)
	var err error
	defer func() { span.End(err) }()

	permission := models.PermissionCode(req.PermissionCode)
	if permission == models.PermissionAdmin {
		var caller *models.User
		caller, err = s.requireCaller(ctx)
		if err != nil {
			return nil, err
		}
		if !caller.IsAdmin() {
			err = dErrors.New(dErrors.CodeForbidden, "creating an administrator requires administrator permission")
			return nil, err
		}
	}

	now := requesttime.Now(ctx)

	hashStart := time.Now()
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		return nil, err
	}
	s.observePasswordHashDuration(time.Since(hashStart).Seconds())

	user, err := models.NewUser(id.NewUserID(), req.Email, req.FamilyName, req.GivenName, hash, permission, now)
	if err != nil {
		return nil, err
	}

	if err = s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			err = dErrors.Wrap(err, dErrors.CodeConflict, "email already registered")
			return nil, err
		}
		err = dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store user")
		return nil, err
	}

	s.logAudit(ctx, "user_signed_up",
		"user_id", user.ID.String(),
		"email", privacy.MaskEmail(user.Email),
		"client_ip", privacy.AnonymizeIP(middleware.GetClientIP(ctx)),
		"permission", user.Permission.Name(),
	)
	s.incrementUsersCreated()
	span.SetAttributes(tracer.String(tracer.AttrUserID, user.ID.String()))

	return models.NewUserResult(user), nil
}
