// internal/service/user_service_test.go
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"bankcards/internal/auth"
	"bankcards/internal/domain"
	"bankcards/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserServiceUnderTest() (UserService, *MockUserRepository, *MockTokenIssuer, *MockDBExecutor) {
	repo := new(MockUserRepository)
	tokens := new(MockTokenIssuer)
	exec := new(MockDBExecutor)
	svc := NewUserService(exec, repo, tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, repo, tokens, exec
}

// TestAuthenticate tests the Authenticate method of UserService.
func TestAuthenticate(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	user := &domain.User{ID: 7, Email: "alice@example.com", PasswordHash: hash, Role: domain.RoleOwner}

	t.Run("Success", func(t *testing.T) {
		ctx := context.Background()
		svc, repo, tokens, exec := newUserServiceUnderTest()

		repo.On("GetUserByEmail", ctx, exec, "alice@example.com").Return(user, nil).Once()
		tokens.On("Issue", user).Return("signed-token", nil).Once()

		token, got, err := svc.Authenticate(ctx, "  Alice@Example.com ", "correct horse")

		require.NoError(t, err)
		assert.Equal(t, "signed-token", token)
		assert.Equal(t, int64(7), got.ID)
		mock.AssertExpectationsForObjects(t, repo, tokens)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		ctx := context.Background()
		svc, repo, tokens, exec := newUserServiceUnderTest()

		repo.On("GetUserByEmail", ctx, exec, "alice@example.com").Return(user, nil).Once()

		_, _, err := svc.Authenticate(ctx, "alice@example.com", "wrong")

		assert.ErrorIs(t, err, util.ErrUnauthenticated)
		tokens.AssertNotCalled(t, "Issue", mock.Anything)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		ctx := context.Background()
		svc, repo, _, exec := newUserServiceUnderTest()

		repo.On("GetUserByEmail", ctx, exec, "nobody@example.com").Return(nil, util.ErrNotFound).Once()

		_, _, err := svc.Authenticate(ctx, "nobody@example.com", "whatever")

		assert.ErrorIs(t, err, util.ErrUnauthenticated)
		assert.NotErrorIs(t, err, util.ErrNotFound)
	})
}

// TestCreateUser tests account creation.
func TestCreateUser(t *testing.T) {
	t.Run("AdminCreatesOwner", func(t *testing.T) {
		ctx := context.Background()
		svc, repo, _, exec := newUserServiceUnderTest()

		repo.On("CreateUser", ctx, exec, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "new@example.com" && u.Role == domain.RoleOwner && auth.CheckPassword(u.PasswordHash, "s3cret-pass") == nil
		})).Run(func(args mock.Arguments) {
			args.Get(2).(*domain.User).ID = 12
		}).Return(nil).Once()

		user, err := svc.CreateUser(ctx, admin, "New@Example.com", "s3cret-pass", domain.RoleOwner)

		require.NoError(t, err)
		assert.Equal(t, int64(12), user.ID)
		repo.AssertExpectations(t)
	})

	t.Run("OwnerDenied", func(t *testing.T) {
		svc, repo, _, _ := newUserServiceUnderTest()

		_, err := svc.CreateUser(context.Background(), owner, "new@example.com", "s3cret-pass", domain.RoleOwner)

		assert.ErrorIs(t, err, util.ErrAccessDenied)
		repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		svc, _, _, _ := newUserServiceUnderTest()

		_, err := svc.CreateUser(context.Background(), admin, "not-an-email", "s3cret-pass", domain.RoleOwner)
		assert.ErrorIs(t, err, util.ErrInvalidInput)

		_, err = svc.CreateUser(context.Background(), admin, "ok@example.com", "short", domain.RoleOwner)
		assert.ErrorIs(t, err, util.ErrInvalidInput)
	})

	t.Run("Duplicate", func(t *testing.T) {
		ctx := context.Background()
		svc, repo, _, exec := newUserServiceUnderTest()

		repo.On("CreateUser", ctx, exec, mock.AnythingOfType("*domain.User")).Return(util.ErrDuplicateEntry).Once()

		_, err := svc.CreateUser(ctx, admin, "dup@example.com", "s3cret-pass", domain.RoleOwner)

		assert.ErrorIs(t, err, util.ErrDuplicateEntry)
	})
}

// TestDeleteUser tests account removal.
func TestDeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctx := context.Background()
		svc, repo, _, exec := newUserServiceUnderTest()

		repo.On("GetUserByID", ctx, exec, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
		repo.On("DeleteUser", ctx, exec, int64(7)).Return(nil).Once()

		require.NoError(t, svc.DeleteUser(ctx, admin, 7))
		repo.AssertExpectations(t)
	})

	t.Run("NotFoundBeforeSelfCheck", func(t *testing.T) {
		ctx := context.Background()
		svc, repo, _, exec := newUserServiceUnderTest()

		repo.On("GetUserByID", ctx, exec, admin.UserID).Return(nil, util.ErrNotFound).Once()

		assert.ErrorIs(t, svc.DeleteUser(ctx, admin, admin.UserID), util.ErrNotFound)
	})

	t.Run("SelfDelete", func(t *testing.T) {
		ctx := context.Background()
		svc, repo, _, exec := newUserServiceUnderTest()

		repo.On("GetUserByID", ctx, exec, admin.UserID).Return(&domain.User{ID: admin.UserID, Role: domain.RoleAdmin}, nil).Once()

		err := svc.DeleteUser(ctx, admin, admin.UserID)

		var opErr *util.InvalidOperationError
		require.True(t, errors.As(err, &opErr))
		assert.Equal(t, util.ReasonSelfDelete, opErr.Reason)
		repo.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("OwnerDenied", func(t *testing.T) {
		svc, _, _, _ := newUserServiceUnderTest()
		assert.ErrorIs(t, svc.DeleteUser(context.Background(), owner, 8), util.ErrAccessDenied)
	})
}

// TestGetUser tests that users may read themselves but not others.
func TestGetUser(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, exec := newUserServiceUnderTest()

	repo.On("GetUserByID", ctx, exec, owner.UserID).Return(&domain.User{ID: owner.UserID}, nil).Once()

	got, err := svc.GetUser(ctx, owner, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, owner.UserID, got.ID)

	_, err = svc.GetUser(ctx, owner, 99)
	assert.ErrorIs(t, err, util.ErrAccessDenied)
	repo.AssertExpectations(t)
}

// TestEnsureAdmin tests bootstrap administrator seeding.
func TestEnsureAdmin(t *testing.T) {
	t.Run("CreatesMissingAdmin", func(t *testing.T) {
		ctx := context.Background()
		svc, repo, _, exec := newUserServiceUnderTest()

		repo.On("GetUserByEmail", ctx, exec, "root@example.com").Return(nil, util.ErrNotFound).Once()
		repo.On("CreateUser", ctx, exec, mock.MatchedBy(func(u *domain.User) bool {
			return u.Role == domain.RoleAdmin && u.Email == "root@example.com"
		})).Return(nil).Once()

		require.NoError(t, svc.EnsureAdmin(ctx, "root@example.com", "bootstrap-pass"))
		repo.AssertExpectations(t)
	})

	t.Run("ExistingUserLeftAlone", func(t *testing.T) {
		ctx := context.Background()
		svc, repo, _, exec := newUserServiceUnderTest()

		repo.On("GetUserByEmail", ctx, exec, "root@example.com").Return(&domain.User{ID: 1}, nil).Once()

		require.NoError(t, svc.EnsureAdmin(ctx, "root@example.com", "bootstrap-pass"))
		repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("DisabledWithoutEmail", func(t *testing.T) {
		svc, repo, _, _ := newUserServiceUnderTest()
		require.NoError(t, svc.EnsureAdmin(context.Background(), "", ""))
		repo.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything, mock.Anything)
	})
}
