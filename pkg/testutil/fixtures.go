// Package testutil provides shared helpers for tests: deterministic IDs,
// fluent fixture builders, and concurrency drivers.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"signet/internal/auth/models"
	id "signet/pkg/domain"
)

// TestIDs provides convenient pre-generated IDs for tests.
// Use these for deterministic test data.
var TestIDs = struct {
	UserID1 id.UserID
	UserID2 id.UserID
}{
	UserID1: id.UserID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	UserID2: id.UserID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
}

// TestTime is a fixed instant for deterministic fixtures.
var TestTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// UserBuilder provides a fluent interface for building test users.
type UserBuilder struct {
	user *models.User
}

// NewUserBuilder creates a new UserBuilder with sensible defaults: an
// active general-permission account with a syntactically valid hash.
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		user: &models.User{
			ID:           id.UserID(uuid.New()),
			Email:        "test@example.com",
			FamilyName:   "Test",
			GivenName:    "User",
			PasswordHash: "$argon2id$v=19$m=64,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
			Active:       true,
			Permission:   models.PermissionGeneral,
			CreatedAt:    TestTime,
			UpdatedAt:    TestTime,
		},
	}
}

func (b *UserBuilder) WithID(userID id.UserID) *UserBuilder {
	b.user.ID = userID
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

func (b *UserBuilder) WithName(familyName, givenName string) *UserBuilder {
	b.user.FamilyName = familyName
	b.user.GivenName = givenName
	return b
}

func (b *UserBuilder) WithPasswordHash(hash string) *UserBuilder {
	b.user.PasswordHash = hash
	return b
}

func (b *UserBuilder) WithPermission(permission models.PermissionCode) *UserBuilder {
	b.user.Permission = permission
	return b
}

func (b *UserBuilder) Admin() *UserBuilder {
	b.user.Permission = models.PermissionAdmin
	return b
}

func (b *UserBuilder) Inactive() *UserBuilder {
	b.user.Active = false
	return b
}

func (b *UserBuilder) WithLastSignInAt(t time.Time) *UserBuilder {
	b.user.LastSignInAt = &t
	return b
}

func (b *UserBuilder) WithCreatedAt(t time.Time) *UserBuilder {
	b.user.CreatedAt = t
	b.user.UpdatedAt = t
	return b
}

func (b *UserBuilder) Build() *models.User {
	return b.user
}

// AttemptBuilder provides a fluent interface for building attempt records.
type AttemptBuilder struct {
	record *models.LoginAttemptRecord
}

// NewAttemptBuilder creates an AttemptBuilder for a single failure at
// TestTime.
func NewAttemptBuilder() *AttemptBuilder {
	return &AttemptBuilder{
		record: &models.LoginAttemptRecord{
			UserID:          TestIDs.UserID1.String(),
			FailureCount:    1,
			WindowStartedAt: TestTime,
			LastAttemptAt:   TestTime,
		},
	}
}

func (b *AttemptBuilder) WithUserID(userID string) *AttemptBuilder {
	b.record.UserID = userID
	return b
}

func (b *AttemptBuilder) WithFailureCount(count int) *AttemptBuilder {
	b.record.FailureCount = count
	return b
}

func (b *AttemptBuilder) WithWindowStartedAt(t time.Time) *AttemptBuilder {
	b.record.WindowStartedAt = t
	b.record.LastAttemptAt = t
	return b
}

func (b *AttemptBuilder) WithLastAttemptAt(t time.Time) *AttemptBuilder {
	b.record.LastAttemptAt = t
	return b
}

func (b *AttemptBuilder) Build() *models.LoginAttemptRecord {
	return b.record
}
