package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

func TestNewUser(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	userID := id.NewUserID()

	t.Run("constructs active user with matching timestamps", func(t *testing.T) {
		u, err := NewUser(userID, "taro@example.com", "Yamada", "Taro", "$argon2id$...", PermissionGeneral, now)
		require.NoError(t, err)

		assert.Equal(t, userID, u.ID)
		assert.Equal(t, "taro@example.com", u.Email)
		assert.True(t, u.Active)
		assert.Equal(t, PermissionGeneral, u.Permission)
		assert.Nil(t, u.LastSignInAt)
		assert.Equal(t, now, u.CreatedAt)
		assert.Equal(t, now, u.UpdatedAt)
	})

	t.Run("rejects empty email", func(t *testing.T) {
		_, err := NewUser(userID, "", "Yamada", "Taro", "$argon2id$...", PermissionGeneral, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects empty password hash", func(t *testing.T) {
		_, err := NewUser(userID, "taro@example.com", "Yamada", "Taro", "", PermissionGeneral, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects unknown permission code", func(t *testing.T) {
		_, err := NewUser(userID, "taro@example.com", "Yamada", "Taro", "$argon2id$...", PermissionCode(0), now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestUser_RecordSignIn(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	signedIn := created.Add(48 * time.Hour)

	u, err := NewUser(id.NewUserID(), "taro@example.com", "Yamada", "Taro", "$argon2id$...", PermissionGeneral, created)
	require.NoError(t, err)

	u.RecordSignIn(signedIn)

	require.NotNil(t, u.LastSignInAt)
	assert.Equal(t, signedIn, *u.LastSignInAt)
	assert.Equal(t, signedIn, u.UpdatedAt)
	assert.Equal(t, created, u.CreatedAt)
}

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, (&User{Permission: PermissionAdmin}).IsAdmin())
	assert.False(t, (&User{Permission: PermissionGeneral}).IsAdmin())
}

func TestLoginAttemptRecord_HasFailures(t *testing.T) {
	var absent *LoginAttemptRecord
	assert.False(t, absent.HasFailures())
	assert.False(t, (&LoginAttemptRecord{FailureCount: 0}).HasFailures())
	assert.True(t, (&LoginAttemptRecord{FailureCount: 1}).HasFailures())
}

func TestLoginAttemptRecord_WindowExpired(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 15 * time.Minute
	rec := &LoginAttemptRecord{WindowStartedAt: start}

	cases := []struct {
		name    string
		now     time.Time
		expired bool
	}{
		{"inside window", start.Add(5 * time.Minute), false},
		{"exactly at window edge", start.Add(window), false},
		{"one second past edge", start.Add(window + time.Second), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expired, rec.WindowExpired(tc.now, window))
		})
	}
}

func TestLoginAttemptRecord_Remaining(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 15 * time.Minute
	rec := &LoginAttemptRecord{WindowStartedAt: start}

	assert.Equal(t, 10*time.Minute, rec.Remaining(start.Add(5*time.Minute), window))
	assert.Equal(t, time.Duration(0), rec.Remaining(start.Add(window), window))
	// Never negative, even when queried long after the window closed.
	assert.Equal(t, time.Duration(0), rec.Remaining(start.Add(time.Hour), window))
}

func TestPermissionCode(t *testing.T) {
	assert.True(t, PermissionAdmin.IsValid())
	assert.True(t, PermissionGeneral.IsValid())
	assert.False(t, PermissionCode(0).IsValid())
	assert.False(t, PermissionCode(3).IsValid())

	assert.Equal(t, "admin", PermissionAdmin.Name())
	assert.Equal(t, "general", PermissionGeneral.Name())
	assert.Equal(t, "unknown", PermissionCode(42).Name())
}

func TestTokenKind(t *testing.T) {
	assert.True(t, TokenKindAccess.IsValid())
	assert.True(t, TokenKindRefresh.IsValid())
	assert.False(t, TokenKind("session").IsValid())

	assert.Equal(t, "access_token", TokenKindAccess.CookieName())
	assert.Equal(t, "refresh_token", TokenKindRefresh.CookieName())
}
