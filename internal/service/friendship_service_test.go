package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"driftchat/internal/domain"
	"driftchat/internal/service"
)

func newFriendshipFixture() (*service.FriendshipService, *MockFriendRequestRepo, *MockUserRepo, *MockNotificationRepo) {
	requests := new(MockFriendRequestRepo)
	users := new(MockUserRepo)
	notifications := new(MockNotificationRepo)
	return service.NewFriendshipService(requests, users, notifications), requests, users, notifications
}

func TestSendFriendRequest(t *testing.T) {
	recipient := &domain.User{ID: "u2", Name: "Bob"}

	t.Run("Success", func(t *testing.T) {
		svc, requests, users, notifications := newFriendshipFixture()

		users.On("GetByID", mock.Anything, "u2").Return(recipient, nil)
		requests.On("GetByUsers", mock.Anything, "u1", "u2").Return(nil, nil)
		requests.On("GetByUsers", mock.Anything, "u2", "u1").Return(nil, nil)
		requests.On("Create", mock.Anything, mock.MatchedBy(func(fr *domain.FriendRequest) bool {
			return fr.SenderID == "u1" && fr.RecipientID == "u2" && fr.Status == domain.FriendRequestPending
		})).Return(nil)
		notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == "u2" && n.Type == domain.NotificationFriendRequest
		})).Return(nil)

		request, err := svc.Send(context.Background(), "u1", "u2")
		assert.NoError(t, err)
		assert.NotNil(t, request)
		assert.Equal(t, domain.FriendRequestPending, request.Status)
		requests.AssertExpectations(t)
		notifications.AssertExpectations(t)
	})

	t.Run("ToSelf", func(t *testing.T) {
		svc, _, _, _ := newFriendshipFixture()

		request, err := svc.Send(context.Background(), "u1", "u1")
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Nil(t, request)
	})

	t.Run("AlreadyFriends", func(t *testing.T) {
		svc, requests, users, _ := newFriendshipFixture()

		users.On("GetByID", mock.Anything, "u2").Return(recipient, nil)
		requests.On("GetByUsers", mock.Anything, "u1", "u2").Return(&domain.FriendRequest{
			ID: "fr1", SenderID: "u1", RecipientID: "u2", Status: domain.FriendRequestAccepted,
		}, nil)
		requests.On("GetByUsers", mock.Anything, "u2", "u1").Return(nil, nil)

		request, err := svc.Send(context.Background(), "u1", "u2")
		assert.ErrorIs(t, err, domain.ErrPrecondition)
		assert.Nil(t, request)
	})

	t.Run("DuplicatePending", func(t *testing.T) {
		svc, requests, users, _ := newFriendshipFixture()

		users.On("GetByID", mock.Anything, "u2").Return(recipient, nil)
		requests.On("GetByUsers", mock.Anything, "u1", "u2").Return(&domain.FriendRequest{
			ID: "fr1", SenderID: "u1", RecipientID: "u2", Status: domain.FriendRequestPending,
		}, nil)
		requests.On("GetByUsers", mock.Anything, "u2", "u1").Return(nil, nil)

		request, err := svc.Send(context.Background(), "u1", "u2")
		assert.ErrorIs(t, err, domain.ErrPrecondition)
		assert.Nil(t, request)
	})

	t.Run("ReversePendingBlocks", func(t *testing.T) {
		svc, requests, users, _ := newFriendshipFixture()

		users.On("GetByID", mock.Anything, "u2").Return(recipient, nil)
		requests.On("GetByUsers", mock.Anything, "u1", "u2").Return(nil, nil)
		requests.On("GetByUsers", mock.Anything, "u2", "u1").Return(&domain.FriendRequest{
			ID: "fr2", SenderID: "u2", RecipientID: "u1", Status: domain.FriendRequestPending,
		}, nil)

		request, err := svc.Send(context.Background(), "u1", "u2")
		assert.ErrorIs(t, err, domain.ErrPrecondition)
		assert.Nil(t, request)
	})

	t.Run("ResendAfterDeclineReopens", func(t *testing.T) {
		svc, requests, users, notifications := newFriendshipFixture()

		respondedAt := time.Now().Add(-time.Hour)
		declined := &domain.FriendRequest{
			ID: "fr1", SenderID: "u1", RecipientID: "u2",
			Status: domain.FriendRequestDeclined, RespondedAt: &respondedAt,
		}
		users.On("GetByID", mock.Anything, "u2").Return(recipient, nil)
		requests.On("GetByUsers", mock.Anything, "u1", "u2").Return(declined, nil)
		requests.On("GetByUsers", mock.Anything, "u2", "u1").Return(nil, nil)
		requests.On("Reopen", mock.Anything, "fr1", mock.Anything).Return(nil)
		notifications.On("Create", mock.Anything, mock.Anything).Return(nil)

		request, err := svc.Send(context.Background(), "u1", "u2")
		assert.NoError(t, err)
		assert.Equal(t, "fr1", request.ID)
		assert.Equal(t, domain.FriendRequestPending, request.Status)
		assert.Nil(t, request.RespondedAt)
		requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("RecipientNotFound", func(t *testing.T) {
		svc, _, users, _ := newFriendshipFixture()

		users.On("GetByID", mock.Anything, "ghost").Return(nil, nil)

		request, err := svc.Send(context.Background(), "u1", "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, request)
	})
}

func TestRespondToFriendRequest(t *testing.T) {
	pending := func() *domain.FriendRequest {
		return &domain.FriendRequest{
			ID: "fr1", SenderID: "u1", RecipientID: "u2",
			Status: domain.FriendRequestPending, CreatedAt: time.Now().Add(-time.Minute),
		}
	}

	t.Run("AcceptSuccess", func(t *testing.T) {
		svc, requests, _, notifications := newFriendshipFixture()

		requests.On("GetByID", mock.Anything, "fr1").Return(pending(), nil)
		requests.On("UpdateStatus", mock.Anything, "fr1", domain.FriendRequestAccepted, mock.Anything).Return(nil)
		notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == "u1" && n.Type == domain.NotificationFriendRequestAccepted
		})).Return(nil)

		request, err := svc.Accept(context.Background(), "fr1", "u2")
		assert.NoError(t, err)
		assert.Equal(t, domain.FriendRequestAccepted, request.Status)
		assert.NotNil(t, request.RespondedAt)
	})

	t.Run("AcceptByNonRecipient", func(t *testing.T) {
		svc, requests, _, _ := newFriendshipFixture()

		requests.On("GetByID", mock.Anything, "fr1").Return(pending(), nil)

		request, err := svc.Accept(context.Background(), "fr1", "u1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Nil(t, request)
	})

	t.Run("AcceptNotPending", func(t *testing.T) {
		svc, requests, _, _ := newFriendshipFixture()

		accepted := pending()
		accepted.Status = domain.FriendRequestAccepted
		requests.On("GetByID", mock.Anything, "fr1").Return(accepted, nil)

		request, err := svc.Accept(context.Background(), "fr1", "u2")
		assert.ErrorIs(t, err, domain.ErrPrecondition)
		assert.Nil(t, request)
	})

	t.Run("DeclineMarksNotificationRead", func(t *testing.T) {
		svc, requests, _, notifications := newFriendshipFixture()

		requests.On("GetByID", mock.Anything, "fr1").Return(pending(), nil)
		requests.On("UpdateStatus", mock.Anything, "fr1", domain.FriendRequestDeclined, mock.Anything).Return(nil)
		notifications.On("MarkReadByFriendRequest", mock.Anything, "fr1", "u2").Return(nil)

		request, err := svc.Decline(context.Background(), "fr1", "u2")
		assert.NoError(t, err)
		assert.Equal(t, domain.FriendRequestDeclined, request.Status)
		notifications.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, requests, _, _ := newFriendshipFixture()

		requests.On("GetByID", mock.Anything, "missing").Return(nil, nil)

		request, err := svc.Accept(context.Background(), "missing", "u2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, request)
	})
}

func TestAreFriends(t *testing.T) {
	t.Run("AcceptedReverseDirection", func(t *testing.T) {
		svc, requests, _, _ := newFriendshipFixture()

		requests.On("GetByUsers", mock.Anything, "u1", "u2").Return(nil, nil)
		requests.On("GetByUsers", mock.Anything, "u2", "u1").Return(&domain.FriendRequest{
			ID: "fr2", SenderID: "u2", RecipientID: "u1", Status: domain.FriendRequestAccepted,
		}, nil)

		friends, err := svc.AreFriends(context.Background(), "u1", "u2")
		assert.NoError(t, err)
		assert.True(t, friends)
	})

	t.Run("PendingIsNotFriendship", func(t *testing.T) {
		svc, requests, _, _ := newFriendshipFixture()

		requests.On("GetByUsers", mock.Anything, "u1", "u2").Return(&domain.FriendRequest{
			ID: "fr1", SenderID: "u1", RecipientID: "u2", Status: domain.FriendRequestPending,
		}, nil)
		requests.On("GetByUsers", mock.Anything, "u2", "u1").Return(nil, nil)

		friends, err := svc.AreFriends(context.Background(), "u1", "u2")
		assert.NoError(t, err)
		assert.False(t, friends)
	})
}

func TestFriendsOf(t *testing.T) {
	svc, requests, users, _ := newFriendshipFixture()

	requests.On("ListBySender", mock.Anything, "u1", domain.FriendRequestAccepted).Return([]*domain.FriendRequest{
		{ID: "fr1", SenderID: "u1", RecipientID: "u2", Status: domain.FriendRequestAccepted},
	}, nil)
	requests.On("ListByRecipient", mock.Anything, "u1", domain.FriendRequestAccepted).Return([]*domain.FriendRequest{
		{ID: "fr2", SenderID: "u3", RecipientID: "u1", Status: domain.FriendRequestAccepted},
	}, nil)
	users.On("GetByIDs", mock.Anything, []string{"u2", "u3"}).Return([]*domain.User{
		{ID: "u2", Name: "Bob"},
		{ID: "u3", Name: "Carol"},
	}, nil)

	friends, err := svc.FriendsOf(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Len(t, friends, 2)
}

func TestFriendRequestStatus(t *testing.T) {
	t.Run("SentPending", func(t *testing.T) {
		svc, requests, _, _ := newFriendshipFixture()

		requests.On("GetByUsers", mock.Anything, "u1", "u2").Return(&domain.FriendRequest{
			ID: "fr1", SenderID: "u1", RecipientID: "u2", Status: domain.FriendRequestPending,
		}, nil)

		status, err := svc.Status(context.Background(), "u1", "u2")
		assert.NoError(t, err)
		assert.Equal(t, "pending", status.Status)
		assert.Equal(t, "sent", *status.Direction)
	})

	t.Run("None", func(t *testing.T) {
		svc, requests, _, _ := newFriendshipFixture()

		requests.On("GetByUsers", mock.Anything, "u1", "u2").Return(nil, nil)
		requests.On("GetByUsers", mock.Anything, "u2", "u1").Return(nil, nil)

		status, err := svc.Status(context.Background(), "u1", "u2")
		assert.NoError(t, err)
		assert.Equal(t, "none", status.Status)
		assert.Nil(t, status.Direction)
	})
}
