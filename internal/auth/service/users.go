package service

import (
	"context"
	"errors"

	"signet/internal/auth/models"
	"signet/internal/sentinel"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

// ListUsers returns every account, newest last. Administrator only.
func (s *Service) ListUsers(ctx context.Context) (*models.UsersResult, error) {
	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "administrator permission required")
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list users")
	}

	results := make([]*models.UserResult, 0, len(users))
	for _, user := range users {
		results = append(results, models.NewUserResult(user))
	}
	return &models.UsersResult{Users: results}, nil
}

// GetUser returns one account. Callers may read themselves; reading anyone
// else requires administrator permission. The permission comes from the
// stored record, not the token, so a demotion takes effect immediately.
func (s *Service) GetUser(ctx context.Context, targetID id.UserID) (*models.UserResult, error) {
	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	if caller.ID == targetID {
		return models.NewUserResult(caller), nil
	}
	if !caller.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "administrator permission required")
	}

	user, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load user")
	}
	return models.NewUserResult(user), nil
}
