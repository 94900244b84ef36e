package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"driftchat/internal/domain"
	"driftchat/internal/service"
)

type messageFixture struct {
	svc           *service.MessageService
	messages      *MockMessageRepo
	conversations *MockConversationRepo
	users         *MockUserRepo
	requests      *MockFriendRequestRepo
}

func newMessageFixture() *messageFixture {
	messages := new(MockMessageRepo)
	conversations := new(MockConversationRepo)
	users := new(MockUserRepo)
	requests := new(MockFriendRequestRepo)
	notifications := new(MockNotificationRepo)

	friendships := service.NewFriendshipService(requests, users, notifications)
	return &messageFixture{
		svc:           service.NewMessageService(messages, conversations, users, friendships),
		messages:      messages,
		conversations: conversations,
		users:         users,
		requests:      requests,
	}
}

func groupConv(id string, participants ...string) *domain.Conversation {
	return &domain.Conversation{
		ID: id, Type: domain.ConversationGroup,
		Participants: participants, InvitedUsers: []string{},
	}
}

func TestSendMessage(t *testing.T) {
	t.Run("FansOutToOtherParticipants", func(t *testing.T) {
		f := newMessageFixture()

		f.conversations.On("GetByID", mock.Anything, "c1").Return(groupConv("c1", "u1", "u2", "u3"), nil)
		f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
			return m.ConversationID == "c1" && m.SenderID == "u1" && m.Content == "hello"
		}), mock.MatchedBy(func(fanOut []*domain.Notification) bool {
			if len(fanOut) != 2 {
				return false
			}
			for _, n := range fanOut {
				if n.UserID == "u1" || n.Type != domain.NotificationMessage {
					return false
				}
			}
			return true
		})).Return(nil)

		msg, err := f.svc.Send(context.Background(), service.MessageSendInput{
			ConversationID: "c1",
			Content:        "hello",
			Type:           domain.MessageText,
		}, "u1")
		assert.NoError(t, err)
		assert.NotEmpty(t, msg.ID)
		f.messages.AssertExpectations(t)
	})

	t.Run("EmptyContent", func(t *testing.T) {
		f := newMessageFixture()

		msg, err := f.svc.Send(context.Background(), service.MessageSendInput{
			ConversationID: "c1",
			Content:        "   ",
			Type:           domain.MessageText,
		}, "u1")
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Nil(t, msg)
	})

	t.Run("ContentTooLong", func(t *testing.T) {
		f := newMessageFixture()

		msg, err := f.svc.Send(context.Background(), service.MessageSendInput{
			ConversationID: "c1",
			Content:        strings.Repeat("x", 5001),
			Type:           domain.MessageText,
		}, "u1")
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Nil(t, msg)
	})

	t.Run("NotParticipant", func(t *testing.T) {
		f := newMessageFixture()

		f.conversations.On("GetByID", mock.Anything, "c1").Return(groupConv("c1", "u1", "u2"), nil)

		msg, err := f.svc.Send(context.Background(), service.MessageSendInput{
			ConversationID: "c1",
			Content:        "hello",
			Type:           domain.MessageText,
		}, "u9")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Nil(t, msg)
	})

	t.Run("FriendGateBlocksStrangers", func(t *testing.T) {
		f := newMessageFixture()

		recipientID := "u2"
		f.conversations.On("GetByID", mock.Anything, "c1").Return(&domain.Conversation{
			ID: "c1", Type: domain.ConversationDirect,
			Participants: []string{"u1", "u2"}, InvitedUsers: []string{},
		}, nil)
		f.users.On("GetByID", mock.Anything, "u2").Return(&domain.User{
			ID: "u2", Name: "Bob", FriendRequestsEnabled: false,
		}, nil)
		f.requests.On("GetByUsers", mock.Anything, "u1", "u2").Return(nil, nil)
		f.requests.On("GetByUsers", mock.Anything, "u2", "u1").Return(nil, nil)

		msg, err := f.svc.Send(context.Background(), service.MessageSendInput{
			ConversationID: "c1",
			Content:        "hello",
			Type:           domain.MessageText,
			RecipientID:    &recipientID,
		}, "u1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Nil(t, msg)
	})

	t.Run("FriendGateAdmitsFriends", func(t *testing.T) {
		f := newMessageFixture()

		recipientID := "u2"
		f.conversations.On("GetByID", mock.Anything, "c1").Return(&domain.Conversation{
			ID: "c1", Type: domain.ConversationDirect,
			Participants: []string{"u1", "u2"}, InvitedUsers: []string{},
		}, nil)
		f.users.On("GetByID", mock.Anything, "u2").Return(&domain.User{
			ID: "u2", Name: "Bob", FriendRequestsEnabled: false,
		}, nil)
		f.requests.On("GetByUsers", mock.Anything, "u1", "u2").Return(&domain.FriendRequest{
			ID: "fr1", SenderID: "u1", RecipientID: "u2", Status: domain.FriendRequestAccepted,
		}, nil)
		f.messages.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		msg, err := f.svc.Send(context.Background(), service.MessageSendInput{
			ConversationID: "c1",
			Content:        "hello",
			Type:           domain.MessageText,
			RecipientID:    &recipientID,
		}, "u1")
		assert.NoError(t, err)
		assert.NotNil(t, msg)
	})

	t.Run("ReplyTargetMustBeInSameConversation", func(t *testing.T) {
		f := newMessageFixture()

		repliedTo := "m9"
		f.conversations.On("GetByID", mock.Anything, "c1").Return(groupConv("c1", "u1", "u2"), nil)
		f.messages.On("GetByID", mock.Anything, "m9").Return(&domain.Message{
			ID: "m9", ConversationID: "c2", SenderID: "u2",
		}, nil)

		msg, err := f.svc.Send(context.Background(), service.MessageSendInput{
			ConversationID:     "c1",
			Content:            "hello",
			Type:               domain.MessageText,
			RepliedToMessageID: &repliedTo,
		}, "u1")
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Nil(t, msg)
	})
}

func TestEditMessage(t *testing.T) {
	existing := func() *domain.Message {
		return &domain.Message{
			ID: "m1", ConversationID: "c1", SenderID: "u1",
			Content: "old", Type: domain.MessageText, Timestamp: time.Now(),
		}
	}

	t.Run("SenderEdits", func(t *testing.T) {
		f := newMessageFixture()

		f.messages.On("GetByID", mock.Anything, "m1").Return(existing(), nil)
		f.messages.On("UpdateContent", mock.Anything, "m1", "new").Return(nil)

		msg, err := f.svc.Edit(context.Background(), "u1", "m1", "new")
		assert.NoError(t, err)
		assert.Equal(t, "new", msg.Content)
		assert.True(t, msg.IsEdited)
	})

	t.Run("NonSenderForbidden", func(t *testing.T) {
		f := newMessageFixture()

		f.messages.On("GetByID", mock.Anything, "m1").Return(existing(), nil)

		msg, err := f.svc.Edit(context.Background(), "u2", "m1", "new")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Nil(t, msg)
		f.messages.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeleteMessage(t *testing.T) {
	t.Run("NonSenderForbidden", func(t *testing.T) {
		f := newMessageFixture()

		f.messages.On("GetByID", mock.Anything, "m1").Return(&domain.Message{
			ID: "m1", ConversationID: "c1", SenderID: "u1",
		}, nil)

		msg, err := f.svc.Delete(context.Background(), "u2", "m1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Nil(t, msg)
	})

	t.Run("SenderDeletes", func(t *testing.T) {
		f := newMessageFixture()

		f.messages.On("GetByID", mock.Anything, "m1").Return(&domain.Message{
			ID: "m1", ConversationID: "c1", SenderID: "u1",
		}, nil)
		f.messages.On("Delete", mock.Anything, "m1").Return(nil)

		msg, err := f.svc.Delete(context.Background(), "u1", "m1")
		assert.NoError(t, err)
		assert.Equal(t, "m1", msg.ID)
	})
}

func TestToggleReaction(t *testing.T) {
	reaction := domain.Reaction{UserID: "u2", Emoji: "👍"}

	t.Run("AddsWhenAbsent", func(t *testing.T) {
		f := newMessageFixture()

		bare := &domain.Message{ID: "m1", ConversationID: "c1", SenderID: "u1", Reactions: []domain.Reaction{}}
		reacted := &domain.Message{ID: "m1", ConversationID: "c1", SenderID: "u1", Reactions: []domain.Reaction{reaction}}

		f.messages.On("GetByID", mock.Anything, "m1").Return(bare, nil).Once()
		f.messages.On("AddReaction", mock.Anything, "m1", reaction).Return(nil)
		f.messages.On("GetByID", mock.Anything, "m1").Return(reacted, nil).Once()

		msg, added, err := f.svc.ToggleReaction(context.Background(), "m1", "u2", "👍")
		assert.NoError(t, err)
		assert.True(t, added)
		assert.Len(t, msg.Reactions, 1)
	})

	t.Run("RemovesWhenPresent", func(t *testing.T) {
		f := newMessageFixture()

		reacted := &domain.Message{ID: "m1", ConversationID: "c1", SenderID: "u1", Reactions: []domain.Reaction{reaction}}
		bare := &domain.Message{ID: "m1", ConversationID: "c1", SenderID: "u1", Reactions: []domain.Reaction{}}

		f.messages.On("GetByID", mock.Anything, "m1").Return(reacted, nil).Once()
		f.messages.On("RemoveReaction", mock.Anything, "m1", reaction).Return(nil)
		f.messages.On("GetByID", mock.Anything, "m1").Return(bare, nil).Once()

		msg, added, err := f.svc.ToggleReaction(context.Background(), "m1", "u2", "👍")
		assert.NoError(t, err)
		assert.False(t, added)
		assert.Empty(t, msg.Reactions)
	})

	t.Run("DistinctEmojiIsSeparate", func(t *testing.T) {
		f := newMessageFixture()

		reacted := &domain.Message{ID: "m1", ConversationID: "c1", SenderID: "u1", Reactions: []domain.Reaction{reaction}}
		both := &domain.Message{ID: "m1", ConversationID: "c1", SenderID: "u1", Reactions: []domain.Reaction{
			reaction, {UserID: "u2", Emoji: "🎉"},
		}}

		f.messages.On("GetByID", mock.Anything, "m1").Return(reacted, nil).Once()
		f.messages.On("AddReaction", mock.Anything, "m1", domain.Reaction{UserID: "u2", Emoji: "🎉"}).Return(nil)
		f.messages.On("GetByID", mock.Anything, "m1").Return(both, nil).Once()

		msg, added, err := f.svc.ToggleReaction(context.Background(), "m1", "u2", "🎉")
		assert.NoError(t, err)
		assert.True(t, added)
		assert.Len(t, msg.Reactions, 2)
	})
}

func TestPaginateMessages(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	newestFirst := func(n int) []*domain.Message {
		msgs := make([]*domain.Message, n)
		for i := 0; i < n; i++ {
			msgs[i] = &domain.Message{
				ID:             "m" + string(rune('a'+i)),
				ConversationID: "c1",
				SenderID:       "u1",
				Content:        "msg",
				Type:           domain.MessageText,
				Timestamp:      base.Add(-time.Duration(i) * time.Minute),
			}
		}
		return msgs
	}

	t.Run("FullPageHasCursor", func(t *testing.T) {
		f := newMessageFixture()

		page1 := newestFirst(20)
		f.conversations.On("GetByID", mock.Anything, "c1").Return(groupConv("c1", "u1", "u2"), nil)
		f.messages.On("ListBefore", mock.Anything, "c1", mock.Anything, 20).Return(page1, nil)

		page, err := f.svc.Paginate(context.Background(), "c1", "u1", 20, nil)
		assert.NoError(t, err)
		assert.Len(t, page.Messages, 20)
		assert.NotNil(t, page.NextCursor)
		assert.Equal(t, page1[len(page1)-1].ID, page.Messages[0].ID) // chronological order
		assert.Equal(t, page.Messages[0].Timestamp, *page.NextCursor)
	})

	t.Run("ShortPageEndsHistory", func(t *testing.T) {
		f := newMessageFixture()

		cursor := base.Add(-20 * time.Minute)
		f.conversations.On("GetByID", mock.Anything, "c1").Return(groupConv("c1", "u1", "u2"), nil)
		f.messages.On("ListBefore", mock.Anything, "c1", cursor, 20).Return(newestFirst(5), nil)

		page, err := f.svc.Paginate(context.Background(), "c1", "u1", 20, &cursor)
		assert.NoError(t, err)
		assert.Len(t, page.Messages, 5)
		assert.Nil(t, page.NextCursor)
	})

	t.Run("NonMemberForbidden", func(t *testing.T) {
		f := newMessageFixture()

		f.conversations.On("GetByID", mock.Anything, "c1").Return(groupConv("c1", "u1", "u2"), nil)

		page, err := f.svc.Paginate(context.Background(), "c1", "u9", 20, nil)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Nil(t, page)
	})
}

func TestSearchMessages(t *testing.T) {
	f := newMessageFixture()

	f.conversations.On("GetByID", mock.Anything, "c1").Return(groupConv("c1", "u1", "u2"), nil)

	results, err := f.svc.Search(context.Background(), "c1", "u1", "   ")
	assert.NoError(t, err)
	assert.Empty(t, results)
	f.messages.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}
