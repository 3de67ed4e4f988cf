package service

import (
	"context"
	"time"

	"signet/internal/auth/cookie"
	"signet/internal/auth/lockout"
	"signet/internal/auth/models"
	"signet/internal/auth/token"
	id "signet/pkg/domain"
)

// UserStore defines the persistence interface for user data.
// Error Contract: Find methods return sentinel.ErrNotFound (wrapped) when no
// account matches; Create returns sentinel.ErrConflict (wrapped) when the
// email or id is already taken.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastSignIn(ctx context.Context, userID id.UserID, at time.Time) error
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
}

// LockoutTracker guards sign-in with per-account failure accounting.
// Check never mutates state; RecordFailure is atomic under concurrency.
type LockoutTracker interface {
	Check(ctx context.Context, userID string, now time.Time) (lockout.Decision, error)
	RecordFailure(ctx context.Context, userID string, now time.Time) (*models.LoginAttemptRecord, error)
	Clear(ctx context.Context, userID string) error
}

// PasswordHasher derives and verifies peppered password hashes.
// Verify returns password.ErrMismatch for a wrong password and
// password.ErrMalformedHash for an undecodable stored hash; both must be
// answered like a failed authentication, never like a server fault.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) error
	DummyVerify(password string)
}

// TokenIssuer mints and verifies the stateless token pair.
type TokenIssuer interface {
	IssuePair(userID id.UserID, now time.Time) (token.Pair, error)
	Verify(tokenString string, kind models.TokenKind, now time.Time) (*token.Claims, error)
}

// CookieBuilder turns issued tokens into cookie specifications. Both methods
// are pure.
type CookieBuilder interface {
	Build(kind models.TokenKind, value string, expiresAt, now time.Time) cookie.Spec
	Expire(kind models.TokenKind) cookie.Spec
}
