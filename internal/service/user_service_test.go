package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"driftchat/internal/domain"
	"driftchat/internal/service"
)

func TestUpsertIdentity(t *testing.T) {
	t.Run("FirstSignInCreates", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := service.NewUserService(users)

		users.On("GetByExternalID", mock.Anything, "ext-1").Return(nil, nil)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.ExternalID == "ext-1" && u.Email == "alice@example.com" &&
				u.IsOnline && u.FriendRequestsEnabled
		})).Return(nil)

		user, err := svc.Upsert(context.Background(), service.IdentityProfile{
			ExternalID: "ext-1",
			Email:      "alice@example.com",
			Name:       "Alice",
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.True(t, user.FriendRequestsEnabled)
	})

	t.Run("RepeatSignInRefreshesProfile", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := service.NewUserService(users)

		users.On("GetByExternalID", mock.Anything, "ext-1").Return(&domain.User{
			ID: "u1", ExternalID: "ext-1", Email: "old@example.com", Name: "Old Name",
			FriendRequestsEnabled: false,
		}, nil)
		users.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.ID == "u1" && u.Email == "alice@example.com" && u.Name == "Alice" && u.IsOnline
		})).Return(nil)

		user, err := svc.Upsert(context.Background(), service.IdentityProfile{
			ExternalID: "ext-1",
			Email:      "alice@example.com",
			Name:       "Alice",
		})
		assert.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		// Settings survive a profile refresh.
		assert.False(t, user.FriendRequestsEnabled)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("MissingExternalID", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := service.NewUserService(users)

		user, err := svc.Upsert(context.Background(), service.IdentityProfile{Email: "a@b.c"})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Nil(t, user)
	})
}

func TestToggleFriendRequests(t *testing.T) {
	users := new(MockUserRepo)
	svc := service.NewUserService(users)

	users.On("GetByID", mock.Anything, "u1").Return(&domain.User{
		ID: "u1", FriendRequestsEnabled: true,
	}, nil)
	users.On("SetFriendRequestsEnabled", mock.Anything, "u1", false).Return(nil)

	enabled, err := svc.ToggleFriendRequests(context.Background(), "u1")
	assert.NoError(t, err)
	assert.False(t, enabled)
	users.AssertExpectations(t)
}
