package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"signet/internal/auth/cookie"
	"signet/internal/auth/lockout"
	"signet/internal/auth/models"
	"signet/internal/auth/password"
	"signet/internal/auth/token"
	"signet/internal/sentinel"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/testutil"
)

func (s *ServiceSuite) TestSignIn() {
	req := &models.SignInRequest{Email: "taro@example.com", Password: "correct horse"}
	allowed := lockout.Decision{Allowed: true}

	s.T().Run("success returns user, tokens, and both cookies", func(t *testing.T) {
		user := testutil.NewUserBuilder().WithEmail(req.Email).Build()
		userID := user.ID.String()

		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), req.Email).Return(user, nil)
		s.mockLockout.EXPECT().Check(gomock.Any(), userID, s.now).Return(allowed, nil)
		s.mockHasher.EXPECT().Verify(req.Password, user.PasswordHash).Return(nil)
		s.mockLockout.EXPECT().Clear(gomock.Any(), userID).Return(nil)
		s.mockUsers.EXPECT().UpdateLastSignIn(gomock.Any(), user.ID, s.now).Return(nil)
		pair := s.expectTokenGrant(user)

		result, err := s.service.SignIn(s.testCtx(), req)
		require.NoError(t, err)

		assert.Equal(t, userID, result.User.ID)
		require.NotNil(t, result.User.LastSignInAt)
		assert.Equal(t, s.now, *result.User.LastSignInAt)
		assert.Equal(t, pair.Access, result.Tokens.Access)
		assert.Equal(t, pair.Refresh, result.Tokens.Refresh)
		assert.Equal(t, pair.AccessExpiresAt, result.Tokens.AccessExpiresAt)
		assert.Equal(t, pair.RefreshExpiresAt, result.Tokens.RefreshExpiresAt)
		require.Len(t, result.Cookies, 2)
		assert.Equal(t, "access_token", result.Cookies[0].Name)
		assert.Equal(t, "refresh_token", result.Cookies[1].Name)
	})

	s.T().Run("unknown email burns a dummy verify and records nothing", func(t *testing.T) {
		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), req.Email).
			Return(nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound))
		s.mockHasher.EXPECT().DummyVerify(req.Password)
		// No lockout expectations: an unknown address must leave no trace.

		result, err := s.service.SignIn(s.testCtx(), req)
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.EqualError(t, err, "invalid email or password")
	})

	s.T().Run("store failure surfaces as unavailable", func(t *testing.T) {
		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), req.Email).
			Return(nil, errors.New("connection refused"))

		_, err := s.service.SignIn(s.testCtx(), req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.T().Run("locked account is rejected before any hashing", func(t *testing.T) {
		user := testutil.NewUserBuilder().WithEmail(req.Email).Build()
		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), req.Email).Return(user, nil)
		s.mockLockout.EXPECT().Check(gomock.Any(), user.ID.String(), s.now).
			Return(lockout.Decision{Allowed: false, FailureCount: 5, RetryAfter: 7 * time.Minute}, nil)
		// No Verify expectation: hashing a password for a locked account
		// would hand attackers a timing oracle and burn CPU for free.

		result, err := s.service.SignIn(s.testCtx(), req)
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAccountLocked))

		var locked *AccountLockedError
		require.ErrorAs(t, err, &locked)
		assert.Equal(t, 7*time.Minute, locked.RetryAfter)
	})

	s.T().Run("lockout check failure passes through", func(t *testing.T) {
		user := testutil.NewUserBuilder().WithEmail(req.Email).Build()
		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), req.Email).Return(user, nil)
		s.mockLockout.EXPECT().Check(gomock.Any(), user.ID.String(), s.now).
			Return(lockout.Decision{}, dErrors.Wrap(errors.New("redis down"), dErrors.CodeUnavailable, "failed to load attempt record"))

		_, err := s.service.SignIn(s.testCtx(), req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.T().Run("wrong password records a failure and answers uniformly", func(t *testing.T) {
		user := testutil.NewUserBuilder().WithEmail(req.Email).Build()
		userID := user.ID.String()

		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), req.Email).Return(user, nil)
		s.mockLockout.EXPECT().Check(gomock.Any(), userID, s.now).Return(allowed, nil)
		s.mockHasher.EXPECT().Verify(req.Password, user.PasswordHash).Return(password.ErrMismatch)
		s.mockLockout.EXPECT().RecordFailure(gomock.Any(), userID, s.now).
			Return(testutil.NewAttemptBuilder().WithUserID(userID).WithFailureCount(1).Build(), nil)

		result, err := s.service.SignIn(s.testCtx(), req)
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.EqualError(t, err, "invalid email or password")
	})

	s.T().Run("malformed stored hash answers like a wrong password", func(t *testing.T) {
		user := testutil.NewUserBuilder().WithEmail(req.Email).WithPasswordHash("$2a$not-argon2id").Build()
		userID := user.ID.String()

		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), req.Email).Return(user, nil)
		s.mockLockout.EXPECT().Check(gomock.Any(), userID, s.now).Return(allowed, nil)
		s.mockHasher.EXPECT().Verify(req.Password, user.PasswordHash).
			Return(fmt.Errorf("%w: expected 6 fields", password.ErrMalformedHash))
		s.mockLockout.EXPECT().RecordFailure(gomock.Any(), userID, s.now).
			Return(testutil.NewAttemptBuilder().WithUserID(userID).Build(), nil)

		_, err := s.service.SignIn(s.testCtx(), req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.EqualError(t, err, "invalid email or password")
	})

	s.T().Run("failed accounting still answers uniformly", func(t *testing.T) {
		user := testutil.NewUserBuilder().WithEmail(req.Email).Build()
		userID := user.ID.String()

		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), req.Email).Return(user, nil)
		s.mockLockout.EXPECT().Check(gomock.Any(), userID, s.now).Return(allowed, nil)
		s.mockHasher.EXPECT().Verify(req.Password, user.PasswordHash).Return(password.ErrMismatch)
		s.mockLockout.EXPECT().RecordFailure(gomock.Any(), userID, s.now).
			Return(nil, errors.New("redis down"))

		_, err := s.service.SignIn(s.testCtx(), req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.EqualError(t, err, "invalid email or password")
	})

	s.T().Run("inactive account with correct password gets no accounting", func(t *testing.T) {
		user := testutil.NewUserBuilder().WithEmail(req.Email).Inactive().Build()
		userID := user.ID.String()

		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), req.Email).Return(user, nil)
		s.mockLockout.EXPECT().Check(gomock.Any(), userID, s.now).Return(allowed, nil)
		s.mockHasher.EXPECT().Verify(req.Password, user.PasswordHash).Return(nil)
		// Neither RecordFailure nor Clear: the credentials were right.

		result, err := s.service.SignIn(s.testCtx(), req)
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAccountInactive))
	})

	s.T().Run("clear failure does not block the sign-in", func(t *testing.T) {
		user := testutil.NewUserBuilder().WithEmail(req.Email).Build()
		userID := user.ID.String()

		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), req.Email).Return(user, nil)
		s.mockLockout.EXPECT().Check(gomock.Any(), userID, s.now).Return(allowed, nil)
		s.mockHasher.EXPECT().Verify(req.Password, user.PasswordHash).Return(nil)
		s.mockLockout.EXPECT().Clear(gomock.Any(), userID).Return(errors.New("redis down"))
		s.mockUsers.EXPECT().UpdateLastSignIn(gomock.Any(), user.ID, s.now).Return(nil)
		s.expectTokenGrant(user)

		result, err := s.service.SignIn(s.testCtx(), req)
		require.NoError(t, err)
		assert.NotNil(t, result.Tokens)
	})

	s.T().Run("last sign-in stamp failure does not block the sign-in", func(t *testing.T) {
		user := testutil.NewUserBuilder().WithEmail(req.Email).Build()
		userID := user.ID.String()

		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), req.Email).Return(user, nil)
		s.mockLockout.EXPECT().Check(gomock.Any(), userID, s.now).Return(allowed, nil)
		s.mockHasher.EXPECT().Verify(req.Password, user.PasswordHash).Return(nil)
		s.mockLockout.EXPECT().Clear(gomock.Any(), userID).Return(nil)
		s.mockUsers.EXPECT().UpdateLastSignIn(gomock.Any(), user.ID, s.now).
			Return(errors.New("connection refused"))
		s.expectTokenGrant(user)

		result, err := s.service.SignIn(s.testCtx(), req)
		require.NoError(t, err)
		// The stamp failed, so the returned view must not pretend it worked.
		assert.Nil(t, result.User.LastSignInAt)
	})

	s.T().Run("token issuance failure is internal", func(t *testing.T) {
		user := testutil.NewUserBuilder().WithEmail(req.Email).Build()
		userID := user.ID.String()

		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), req.Email).Return(user, nil)
		s.mockLockout.EXPECT().Check(gomock.Any(), userID, s.now).Return(allowed, nil)
		s.mockHasher.EXPECT().Verify(req.Password, user.PasswordHash).Return(nil)
		s.mockLockout.EXPECT().Clear(gomock.Any(), userID).Return(nil)
		s.mockUsers.EXPECT().UpdateLastSignIn(gomock.Any(), user.ID, s.now).Return(nil)
		s.mockTokens.EXPECT().IssuePair(user.ID, s.now).
			Return(token.Pair{}, errors.New("signing failed"))

		_, err := s.service.SignIn(s.testCtx(), req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestSignOut() {
	accessSpec := cookie.Spec{Name: "access_token", MaxAge: -1}
	refreshSpec := cookie.Spec{Name: "refresh_token", MaxAge: -1}
	s.mockCookies.EXPECT().Expire(models.TokenKindAccess).Return(accessSpec)
	s.mockCookies.EXPECT().Expire(models.TokenKindRefresh).Return(refreshSpec)

	specs := s.service.SignOut(s.callerCtx(testutil.TestIDs.UserID1.String()))

	s.Require().Len(specs, 2)
	s.Equal(accessSpec, specs[0])
	s.Equal(refreshSpec, specs[1])
}
