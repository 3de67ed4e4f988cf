// Package seeder bootstraps the first administrator account. Administrator
// sign-up requires an administrator caller, so a fresh deployment needs one
// account put in place before the API can mint the rest.
package seeder

import (
	"context"
	"log/slog"
	"time"

	"signet/internal/auth/email"
	"signet/internal/auth/models"
	"signet/internal/platform/privacy"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/validation"
)

// UserStore defines the storage methods seeding needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Count(ctx context.Context) (int, error)
}

// PasswordHasher produces the stored form of the seeded credential.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Seeder creates the bootstrap administrator in an empty user store.
type Seeder struct {
	users  UserStore
	hasher PasswordHasher
	logger *slog.Logger
}

// New creates a new seeder.
func New(users UserStore, hasher PasswordHasher, logger *slog.Logger) *Seeder {
	return &Seeder{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// EnsureAdmin creates an administrator account with the given credentials
// when the store holds no accounts at all. A store with any account is left
// untouched, so redeploys never resurrect a deleted or demoted admin.
// Empty credentials disable seeding.
func (s *Seeder) EnsureAdmin(ctx context.Context, adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		s.logger.InfoContext(ctx, "admin seed not configured, skipping")
		return nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to count accounts")
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "user store already populated, skipping admin seed",
			"accounts", count,
		)
		return nil
	}

	normalized := email.Normalize(adminEmail)
	if !email.IsValid(normalized) {
		return dErrors.New(dErrors.CodeValidation, "seed admin email is not a valid address")
	}
	if violation := validation.PasswordRuleViolation(adminPassword); violation != "" {
		return dErrors.New(dErrors.CodeValidation, "seed admin password rejected: "+violation)
	}

	hash, err := s.hasher.Hash(adminPassword)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash seed admin password")
	}

	user, err := models.NewUser(id.NewUserID(), normalized, "Administrator", "Bootstrap", hash, models.PermissionAdmin, time.Now())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build seed admin account")
	}
	if err := s.users.Create(ctx, user); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store seed admin account")
	}

	s.logger.InfoContext(ctx, "bootstrap administrator created",
		"user_id", user.ID,
		"email", privacy.MaskEmail(normalized),
	)
	return nil
}
