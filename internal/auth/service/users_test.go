package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"signet/internal/auth/models"
	"signet/internal/sentinel"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/testutil"
)

func (s *ServiceSuite) TestListUsers() {
	admin := testutil.NewUserBuilder().WithID(testutil.TestIDs.UserID1).Admin().Build()

	s.T().Run("admin sees every account", func(t *testing.T) {
		other := testutil.NewUserBuilder().WithID(testutil.TestIDs.UserID2).
			WithEmail("other@example.com").Build()

		s.mockUsers.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		s.mockUsers.EXPECT().List(gomock.Any()).Return([]*models.User{admin, other}, nil)

		result, err := s.service.ListUsers(s.callerCtx(admin.ID.String()))
		require.NoError(t, err)

		require.Len(t, result.Users, 2)
		assert.Equal(t, admin.ID.String(), result.Users[0].ID)
		assert.Equal(t, "other@example.com", result.Users[1].Email)
	})

	s.T().Run("general caller is forbidden", func(t *testing.T) {
		caller := testutil.NewUserBuilder().WithID(testutil.TestIDs.UserID2).Build()
		s.mockUsers.EXPECT().FindByID(gomock.Any(), caller.ID).Return(caller, nil)

		result, err := s.service.ListUsers(s.callerCtx(caller.ID.String()))
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.T().Run("unauthenticated caller is unauthorized", func(t *testing.T) {
		_, err := s.service.ListUsers(s.testCtx())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.T().Run("garbage token subject is unauthorized", func(t *testing.T) {
		_, err := s.service.ListUsers(s.callerCtx("not-a-uuid"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.T().Run("deleted caller is unauthorized", func(t *testing.T) {
		s.mockUsers.EXPECT().FindByID(gomock.Any(), admin.ID).
			Return(nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound))

		_, err := s.service.ListUsers(s.callerCtx(admin.ID.String()))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.T().Run("deactivated caller is rejected", func(t *testing.T) {
		inactive := testutil.NewUserBuilder().WithID(testutil.TestIDs.UserID1).Admin().Inactive().Build()
		s.mockUsers.EXPECT().FindByID(gomock.Any(), inactive.ID).Return(inactive, nil)

		_, err := s.service.ListUsers(s.callerCtx(inactive.ID.String()))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAccountInactive))
	})

	s.T().Run("store failure surfaces as unavailable", func(t *testing.T) {
		s.mockUsers.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		s.mockUsers.EXPECT().List(gomock.Any()).Return(nil, errors.New("connection refused"))

		_, err := s.service.ListUsers(s.callerCtx(admin.ID.String()))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func (s *ServiceSuite) TestGetUser() {
	s.T().Run("caller reads their own account without extra permission", func(t *testing.T) {
		caller := testutil.NewUserBuilder().WithID(testutil.TestIDs.UserID1).Build()
		s.mockUsers.EXPECT().FindByID(gomock.Any(), caller.ID).Return(caller, nil)
		// One lookup only: the caller record doubles as the answer.

		result, err := s.service.GetUser(s.callerCtx(caller.ID.String()), caller.ID)
		require.NoError(t, err)
		assert.Equal(t, caller.ID.String(), result.ID)
	})

	s.T().Run("general caller cannot read someone else", func(t *testing.T) {
		caller := testutil.NewUserBuilder().WithID(testutil.TestIDs.UserID1).Build()
		s.mockUsers.EXPECT().FindByID(gomock.Any(), caller.ID).Return(caller, nil)

		result, err := s.service.GetUser(s.callerCtx(caller.ID.String()), testutil.TestIDs.UserID2)
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.T().Run("admin reads any account", func(t *testing.T) {
		admin := testutil.NewUserBuilder().WithID(testutil.TestIDs.UserID1).Admin().Build()
		target := testutil.NewUserBuilder().WithID(testutil.TestIDs.UserID2).
			WithEmail("target@example.com").Build()

		s.mockUsers.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		s.mockUsers.EXPECT().FindByID(gomock.Any(), target.ID).Return(target, nil)

		result, err := s.service.GetUser(s.callerCtx(admin.ID.String()), target.ID)
		require.NoError(t, err)
		assert.Equal(t, "target@example.com", result.Email)
	})

	s.T().Run("missing target is not found", func(t *testing.T) {
		admin := testutil.NewUserBuilder().WithID(testutil.TestIDs.UserID1).Admin().Build()

		s.mockUsers.EXPECT().FindByID(gomock.Any(), admin.ID).Return(admin, nil)
		s.mockUsers.EXPECT().FindByID(gomock.Any(), testutil.TestIDs.UserID2).
			Return(nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound))

		_, err := s.service.GetUser(s.callerCtx(admin.ID.String()), testutil.TestIDs.UserID2)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
