package domain

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*User, error)
	ListAll(ctx context.Context) ([]*User, error)
	ListOnline(ctx context.Context) ([]*User, error)
	UpdateProfile(ctx context.Context, u *User) error
	SetOnlineStatus(ctx context.Context, id string, isOnline bool, lastSeen time.Time) error
	SetFriendRequestsEnabled(ctx context.Context, id string, enabled bool) error
}

// FriendRequestRepository defines persistence operations for friend requests.
type FriendRequestRepository interface {
	Create(ctx context.Context, fr *FriendRequest) error
	GetByID(ctx context.Context, id string) (*FriendRequest, error)
	// GetByUsers returns the row for the ordered (sender, recipient) pair,
	// or nil when none exists.
	GetByUsers(ctx context.Context, senderID, recipientID string) (*FriendRequest, error)
	ListByRecipient(ctx context.Context, recipientID string, status FriendRequestStatus) ([]*FriendRequest, error)
	ListBySender(ctx context.Context, senderID string, status FriendRequestStatus) ([]*FriendRequest, error)
	UpdateStatus(ctx context.Context, id string, status FriendRequestStatus, respondedAt time.Time) error
	// Reopen resets a declined request to pending with a fresh creation
	// time, superseding the declined row.
	Reopen(ctx context.Context, id string, createdAt time.Time) error
}

// ConversationRepository defines persistence operations for conversations
// and their membership rows.
type ConversationRepository interface {
	// Create inserts the conversation and its membership rows in one
	// transaction. Member slices are keyed by role.
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id string) (*Conversation, error)
	GetByDirectKey(ctx context.Context, key string) (*Conversation, error)
	// ListForUser returns conversations where the user is a participant or
	// an invitee, most recently active first.
	ListForUser(ctx context.Context, userID string) ([]*Conversation, error)
	AddMember(ctx context.Context, conversationID, userID string, role MemberRole) error
	RemoveMember(ctx context.Context, conversationID, userID string) error
	// PromoteInvite flips an invited membership to participant and marks
	// the user's matching group_invite notifications read, atomically.
	PromoteInvite(ctx context.Context, conversationID, userID string) error
}

// MessageRepository defines persistence operations for messages and
// reactions. Reads hydrate the Reactions slice.
type MessageRepository interface {
	// Create inserts the message, bumps the conversation's
	// last_message_at, and inserts the given notifications in one
	// transaction.
	Create(ctx context.Context, m *Message, fanOut []*Notification) error
	GetByID(ctx context.Context, id string) (*Message, error)
	ListForConversation(ctx context.Context, conversationID string) ([]*Message, error)
	// ListBefore returns up to limit messages older than the cursor,
	// newest first.
	ListBefore(ctx context.Context, conversationID string, before time.Time, limit int) ([]*Message, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, conversationID, term string) ([]*Message, error)
	AddReaction(ctx context.Context, messageID string, r Reaction) error
	RemoveReaction(ctx context.Context, messageID string, r Reaction) error
}

// TypingRepository defines persistence operations for typing indicators.
type TypingRepository interface {
	Upsert(ctx context.Context, conversationID, userID string, at time.Time) error
	ListForConversation(ctx context.Context, conversationID string) ([]*TypingIndicator, error)
	Delete(ctx context.Context, conversationID, userID string) error
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	ListUnread(ctx context.Context, userID string) ([]*Notification, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	// MarkReadByFriendRequest marks the recipient's notifications tied to
	// the given friend request read.
	MarkReadByFriendRequest(ctx context.Context, friendRequestID, userID string) error
	// MarkReadByConversation marks the user's group_invite notifications
	// for the given conversation read.
	MarkReadByConversation(ctx context.Context, conversationID, userID string) error
	Delete(ctx context.Context, id string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}
