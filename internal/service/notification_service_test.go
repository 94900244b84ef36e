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

func newNotificationFixture() (*service.NotificationService, *MockNotificationRepo, *MockUserRepo, *MockConversationRepo, *MockFriendRequestRepo) {
	notifications := new(MockNotificationRepo)
	users := new(MockUserRepo)
	conversations := new(MockConversationRepo)
	requests := new(MockFriendRequestRepo)
	svc := service.NewNotificationService(notifications, users, conversations, requests)
	return svc, notifications, users, conversations, requests
}

func TestListUnreadNotifications(t *testing.T) {
	t.Run("EnrichesDirectMessageWithOtherUser", func(t *testing.T) {
		svc, notifications, users, conversations, _ := newNotificationFixture()

		convID := "c1"
		notifications.On("ListUnread", mock.Anything, "u1").Return([]*domain.Notification{
			{ID: "n1", UserID: "u1", Type: domain.NotificationMessage, SenderID: "u2", ConversationID: &convID, CreatedAt: time.Now()},
		}, nil)
		users.On("GetByID", mock.Anything, "u2").Return(&domain.User{ID: "u2", Name: "Bob"}, nil)
		conversations.On("GetByID", mock.Anything, "c1").Return(&domain.Conversation{
			ID: "c1", Type: domain.ConversationDirect,
			Participants: []string{"u1", "u2"}, InvitedUsers: []string{},
		}, nil)

		enriched, err := svc.ListUnread(context.Background(), "u1")
		assert.NoError(t, err)
		assert.Len(t, enriched, 1)
		assert.Equal(t, "Bob", enriched[0].Sender.Name)
		assert.NotNil(t, enriched[0].Conversation)
		assert.NotNil(t, enriched[0].OtherUser)
		assert.Equal(t, "u2", enriched[0].OtherUser.ID)
	})

	t.Run("EnrichesFriendRequest", func(t *testing.T) {
		svc, notifications, users, _, requests := newNotificationFixture()

		frID := "fr1"
		notifications.On("ListUnread", mock.Anything, "u1").Return([]*domain.Notification{
			{ID: "n1", UserID: "u1", Type: domain.NotificationFriendRequest, SenderID: "u2", FriendRequestID: &frID, CreatedAt: time.Now()},
		}, nil)
		users.On("GetByID", mock.Anything, "u2").Return(&domain.User{ID: "u2", Name: "Bob"}, nil)
		requests.On("GetByID", mock.Anything, "fr1").Return(&domain.FriendRequest{
			ID: "fr1", SenderID: "u2", RecipientID: "u1", Status: domain.FriendRequestPending,
		}, nil)

		enriched, err := svc.ListUnread(context.Background(), "u1")
		assert.NoError(t, err)
		assert.Len(t, enriched, 1)
		assert.NotNil(t, enriched[0].FriendRequest)
		assert.Nil(t, enriched[0].Conversation)
	})
}

func TestMarkNotificationRead(t *testing.T) {
	t.Run("OwnerMarksRead", func(t *testing.T) {
		svc, notifications, _, _, _ := newNotificationFixture()

		notifications.On("GetByID", mock.Anything, "n1").Return(&domain.Notification{
			ID: "n1", UserID: "u1", Type: domain.NotificationMessage, SenderID: "u2",
		}, nil)
		notifications.On("MarkRead", mock.Anything, "n1").Return(nil)

		assert.NoError(t, svc.MarkRead(context.Background(), "n1", "u1"))
	})

	t.Run("NonOwnerForbidden", func(t *testing.T) {
		svc, notifications, _, _, _ := newNotificationFixture()

		notifications.On("GetByID", mock.Anything, "n1").Return(&domain.Notification{
			ID: "n1", UserID: "u1", Type: domain.NotificationMessage, SenderID: "u2",
		}, nil)

		err := svc.MarkRead(context.Background(), "n1", "u9")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		notifications.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
	})

	t.Run("Missing", func(t *testing.T) {
		svc, notifications, _, _, _ := newNotificationFixture()

		notifications.On("GetByID", mock.Anything, "ghost").Return(nil, nil)

		err := svc.MarkRead(context.Background(), "ghost", "u1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUnreadCount(t *testing.T) {
	svc, notifications, _, _, _ := newNotificationFixture()

	notifications.On("CountUnread", mock.Anything, "u1").Return(4, nil)

	count, err := svc.UnreadCount(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, 4, count)
}
