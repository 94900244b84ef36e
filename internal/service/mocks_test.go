package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"driftchat/internal/domain"
)

// Hand-written repository mocks shared by the service tests.

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepo) ListAll(ctx context.Context) ([]*domain.User, error) {
	return nil, nil
}

func (m *MockUserRepo) ListOnline(ctx context.Context) ([]*domain.User, error) {
	return nil, nil
}

func (m *MockUserRepo) UpdateProfile(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) SetOnlineStatus(ctx context.Context, id string, isOnline bool, lastSeen time.Time) error {
	return nil
}

func (m *MockUserRepo) SetFriendRequestsEnabled(ctx context.Context, id string, enabled bool) error {
	args := m.Called(ctx, id, enabled)
	return args.Error(0)
}

type MockFriendRequestRepo struct {
	mock.Mock
}

func (m *MockFriendRequestRepo) Create(ctx context.Context, fr *domain.FriendRequest) error {
	args := m.Called(ctx, fr)
	return args.Error(0)
}

func (m *MockFriendRequestRepo) GetByID(ctx context.Context, id string) (*domain.FriendRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FriendRequest), args.Error(1)
}

func (m *MockFriendRequestRepo) GetByUsers(ctx context.Context, senderID, recipientID string) (*domain.FriendRequest, error) {
	args := m.Called(ctx, senderID, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FriendRequest), args.Error(1)
}

func (m *MockFriendRequestRepo) ListByRecipient(ctx context.Context, recipientID string, status domain.FriendRequestStatus) ([]*domain.FriendRequest, error) {
	args := m.Called(ctx, recipientID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FriendRequest), args.Error(1)
}

func (m *MockFriendRequestRepo) ListBySender(ctx context.Context, senderID string, status domain.FriendRequestStatus) ([]*domain.FriendRequest, error) {
	args := m.Called(ctx, senderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FriendRequest), args.Error(1)
}

func (m *MockFriendRequestRepo) UpdateStatus(ctx context.Context, id string, status domain.FriendRequestStatus, respondedAt time.Time) error {
	args := m.Called(ctx, id, status, respondedAt)
	return args.Error(0)
}

func (m *MockFriendRequestRepo) Reopen(ctx context.Context, id string, createdAt time.Time) error {
	args := m.Called(ctx, id, createdAt)
	return args.Error(0)
}

type MockConversationRepo struct {
	mock.Mock
}

func (m *MockConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockConversationRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepo) GetByDirectKey(ctx context.Context, key string) (*domain.Conversation, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepo) AddMember(ctx context.Context, conversationID, userID string, role domain.MemberRole) error {
	args := m.Called(ctx, conversationID, userID, role)
	return args.Error(0)
}

func (m *MockConversationRepo) RemoveMember(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *MockConversationRepo) PromoteInvite(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

type MockMessageRepo struct {
	mock.Mock
}

func (m *MockMessageRepo) Create(ctx context.Context, msg *domain.Message, fanOut []*domain.Notification) error {
	args := m.Called(ctx, msg, fanOut)
	return args.Error(0)
}

func (m *MockMessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) ListForConversation(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) ListBefore(ctx context.Context, conversationID string, before time.Time, limit int) ([]*domain.Message, error) {
	args := m.Called(ctx, conversationID, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) UpdateContent(ctx context.Context, id, content string) error {
	args := m.Called(ctx, id, content)
	return args.Error(0)
}

func (m *MockMessageRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMessageRepo) Search(ctx context.Context, conversationID, term string) ([]*domain.Message, error) {
	args := m.Called(ctx, conversationID, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) AddReaction(ctx context.Context, messageID string, r domain.Reaction) error {
	args := m.Called(ctx, messageID, r)
	return args.Error(0)
}

func (m *MockMessageRepo) RemoveReaction(ctx context.Context, messageID string, r domain.Reaction) error {
	args := m.Called(ctx, messageID, r)
	return args.Error(0)
}

type MockTypingRepo struct {
	mock.Mock
}

func (m *MockTypingRepo) Upsert(ctx context.Context, conversationID, userID string, at time.Time) error {
	args := m.Called(ctx, conversationID, userID, at)
	return args.Error(0)
}

func (m *MockTypingRepo) ListForConversation(ctx context.Context, conversationID string) ([]*domain.TypingIndicator, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TypingIndicator), args.Error(1)
}

func (m *MockTypingRepo) Delete(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepo) ListUnread(ctx context.Context, userID string) ([]*domain.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepo) ListRecent(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepo) MarkRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockNotificationRepo) MarkReadByFriendRequest(ctx context.Context, friendRequestID, userID string) error {
	args := m.Called(ctx, friendRequestID, userID)
	return args.Error(0)
}

func (m *MockNotificationRepo) MarkReadByConversation(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *MockNotificationRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
