package service

import (
	"context"
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

func (s *ServiceSuite) TestSignUp() {
	req := &models.SignUpRequest{
		Email:          "hanako@example.com",
		Password:       "correct horse battery staple",
		FamilyName:     "Sato",
		GivenName:      "Hanako",
		PermissionCode: int16(models.PermissionGeneral),
	}
	const hashed = "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA"

	s.T().Run("general account stores the hash, never the password", func(t *testing.T) {
		s.mockHasher.EXPECT().Hash(req.Password).Return(hashed, nil)
		s.mockUsers.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, user *models.User) error {
				assert.Equal(t, req.Email, user.Email)
				assert.Equal(t, hashed, user.PasswordHash)
				assert.NotContains(t, user.PasswordHash, req.Password)
				assert.Equal(t, models.PermissionGeneral, user.Permission)
				assert.True(t, user.Active)
				assert.Equal(t, s.now, user.CreatedAt)
				return nil
			})

		result, err := s.service.SignUp(s.testCtx(), req)
		require.NoError(t, err)

		assert.Equal(t, req.Email, result.Email)
		assert.Equal(t, "Sato", result.FamilyName)
		assert.Equal(t, "general", result.Permission.Name)
		assert.Nil(t, result.LastSignInAt)
	})

	s.T().Run("admin account from an admin caller", func(t *testing.T) {
		caller := testutil.NewUserBuilder().WithID(testutil.TestIDs.UserID1).Admin().Build()
		adminReq := *req
		adminReq.PermissionCode = int16(models.PermissionAdmin)

		s.mockUsers.EXPECT().FindByID(gomock.Any(), caller.ID).Return(caller, nil)
		s.mockHasher.EXPECT().Hash(adminReq.Password).Return(hashed, nil)
		s.mockUsers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.SignUp(s.callerCtx(caller.ID.String()), &adminReq)
		require.NoError(t, err)
		assert.Equal(t, "admin", result.Permission.Name)
	})

	s.T().Run("admin account from a general caller is forbidden", func(t *testing.T) {
		caller := testutil.NewUserBuilder().WithID(testutil.TestIDs.UserID1).Build()
		adminReq := *req
		adminReq.PermissionCode = int16(models.PermissionAdmin)

		s.mockUsers.EXPECT().FindByID(gomock.Any(), caller.ID).Return(caller, nil)

		result, err := s.service.SignUp(s.callerCtx(caller.ID.String()), &adminReq)
		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.T().Run("admin account without a caller is unauthorized", func(t *testing.T) {
		adminReq := *req
		adminReq.PermissionCode = int16(models.PermissionAdmin)

		_, err := s.service.SignUp(s.testCtx(), &adminReq)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.T().Run("duplicate email is a conflict", func(t *testing.T) {
		s.mockHasher.EXPECT().Hash(req.Password).Return(hashed, nil)
		s.mockUsers.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(fmt.Errorf("email already registered: %w", sentinel.ErrConflict))

		_, err := s.service.SignUp(s.testCtx(), req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.T().Run("hashing failure is internal", func(t *testing.T) {
		s.mockHasher.EXPECT().Hash(req.Password).Return("", errors.New("not enough entropy"))

		_, err := s.service.SignUp(s.testCtx(), req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.T().Run("store failure surfaces as unavailable", func(t *testing.T) {
		s.mockHasher.EXPECT().Hash(req.Password).Return(hashed, nil)
		s.mockUsers.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(errors.New("connection refused"))

		_, err := s.service.SignUp(s.testCtx(), req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}
