package models

import (
	"time"

	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

// This file contains pure domain models for authentication: entities
// that should not depend on transport or HTTP-specific concerns.

// User represents an account in the auth domain.
// This is a pure domain entity - use UserResult for JSON responses.
type User struct {
	ID           id.UserID
	Email        string
	FamilyName   string
	GivenName    string
	PasswordHash string
	Active       bool
	Permission   PermissionCode
	LastSignInAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u.Active
}

// IsAdmin reports whether the account holds the admin permission.
func (u *User) IsAdmin() bool {
	return u.Permission == PermissionAdmin
}

// RecordSignIn stamps the last sign-in time. The update timestamp moves with
// it so list output reflects the write.
func (u *User) RecordSignIn(at time.Time) {
	u.LastSignInAt = &at
	u.UpdatedAt = at
}

// NewUser constructs a User and enforces basic invariants. The email is
// expected to arrive already normalized; the password hash is the encoded
// form produced by the hasher, never a plaintext.
func NewUser(userID id.UserID, email, familyName, givenName, passwordHash string, permission PermissionCode, createdAt time.Time) (*User, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user email cannot be empty")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user password hash cannot be empty")
	}
	if !permission.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user permission code out of range")
	}
	return &User{
		ID:           userID,
		Email:        email,
		FamilyName:   familyName,
		GivenName:    givenName,
		PasswordHash: passwordHash,
		Active:       true,
		Permission:   permission,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// LoginAttemptRecord tracks consecutive sign-in failures for one account.
// Invariants:
//   - FailureCount 0 means "no active window"; such records are equivalent
//     to the record being absent.
//   - WindowStartedAt anchors the sliding window to the first failure.
//   - Mutated only through the attempt store's atomic operations.
type LoginAttemptRecord struct {
	UserID          string
	FailureCount    int
	WindowStartedAt time.Time
	LastAttemptAt   time.Time
}

// HasFailures reports whether an active failure window exists.
func (r *LoginAttemptRecord) HasFailures() bool {
	return r != nil && r.FailureCount > 0
}

// WindowExpired reports whether the failure window has lapsed at now.
func (r *LoginAttemptRecord) WindowExpired(now time.Time, window time.Duration) bool {
	return now.Sub(r.WindowStartedAt) > window
}

// Remaining returns how long the current window still has to run at now.
// Zero means the window is over.
func (r *LoginAttemptRecord) Remaining(now time.Time, window time.Duration) time.Duration {
	left := window - now.Sub(r.WindowStartedAt)
	if left < 0 {
		return 0
	}
	return left
}
