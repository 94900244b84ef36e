package domain

import "time"

// ConversationType distinguishes 1:1 chats from named groups.
type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

// MemberRole is the membership state of a user within a conversation.
// Invited users see the conversation in their list but cannot post until
// they accept.
type MemberRole string

const (
	RoleParticipant MemberRole = "participant"
	RoleInvited     MemberRole = "invited"
)

// MessageType describes the payload carried in Message.Content. For
// non-text types the content is the upload path or URL.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
	MessageVoice MessageType = "voice"
)

// FriendRequestStatus is the lifecycle state of a friend request.
// Accepted and declined are terminal; a declined request may be reopened
// to pending by a superseding resend.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestDeclined FriendRequestStatus = "declined"
)

// NotificationType classifies what triggered a notification.
type NotificationType string

const (
	NotificationMessage               NotificationType = "message"
	NotificationFriendRequest         NotificationType = "friend_request"
	NotificationFriendRequestAccepted NotificationType = "friend_request_accepted"
	NotificationGroupInvite           NotificationType = "group_invite"
)

// TypingWindow is how long a typing indicator stays fresh after the last
// keystroke. Stale rows are filtered at read time, not swept.
const TypingWindow = 3 * time.Second

// User is a local profile synced from the external identity provider.
// ExternalID is the provider's subject and never changes.
type User struct {
	ID                    string    `db:"id" json:"id"`
	ExternalID            string    `db:"external_id" json:"external_id"`
	Email                 string    `db:"email" json:"email"`
	Name                  string    `db:"name" json:"name"`
	AvatarURL             string    `db:"avatar_url" json:"avatar_url"`
	IsOnline              bool      `db:"is_online" json:"is_online"`
	LastSeen              time.Time `db:"last_seen" json:"last_seen"`
	FriendRequestsEnabled bool      `db:"friend_requests_enabled" json:"friend_requests_enabled"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}

// FriendRequest is a directed request between two users. At most one row
// exists per ordered (sender, recipient) pair. "Friends" is derived: an
// accepted row in either direction.
type FriendRequest struct {
	ID          string              `db:"id" json:"id"`
	SenderID    string              `db:"sender_id" json:"sender_id"`
	RecipientID string              `db:"recipient_id" json:"recipient_id"`
	Status      FriendRequestStatus `db:"status" json:"status"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	RespondedAt *time.Time          `db:"responded_at" json:"responded_at,omitempty"`
}

// Conversation is a direct or group chat. Participants and InvitedUsers
// are disjoint; for direct conversations InvitedUsers is always empty and
// Participants has exactly two entries. DirectKey is the sorted user-ID
// pair for direct conversations and enforces their uniqueness.
type Conversation struct {
	ID            string           `db:"id" json:"id"`
	Type          ConversationType `db:"type" json:"type"`
	Name          *string          `db:"name" json:"name,omitempty"`
	CreatorID     *string          `db:"creator_id" json:"creator_id,omitempty"`
	DirectKey     *string          `db:"direct_key" json:"-"`
	Participants  []string         `json:"participants"`
	InvitedUsers  []string         `json:"invited_users"`
	LastMessageAt time.Time        `db:"last_message_at" json:"last_message_at"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// IsParticipant reports whether the user has fully joined.
func (c *Conversation) IsParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// IsInvited reports whether the user has a pending invitation.
func (c *Conversation) IsInvited(userID string) bool {
	for _, id := range c.InvitedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Reaction is one user's emoji on a message. The (UserID, Emoji) pair is
// unique per message; repeating it toggles the reaction off.
type Reaction struct {
	UserID string `db:"user_id" json:"user_id"`
	Emoji  string `db:"emoji" json:"emoji"`
}

// Message is a single chat message. Deletes are hard; a reply target may
// dangle after its message is removed and readers must tolerate that.
type Message struct {
	ID                 string      `db:"id" json:"id"`
	ConversationID     string      `db:"conversation_id" json:"conversation_id"`
	SenderID           string      `db:"sender_id" json:"sender_id"`
	Content            string      `db:"content" json:"content"`
	Type               MessageType `db:"type" json:"type"`
	Timestamp          time.Time   `db:"timestamp" json:"timestamp"`
	Reactions          []Reaction  `json:"reactions"`
	IsEdited           bool        `db:"is_edited" json:"is_edited"`
	RepliedToMessageID *string     `db:"replied_to_message_id" json:"replied_to_message_id,omitempty"`
}

// TypingIndicator is the ephemeral per-(conversation, user) typing state.
type TypingIndicator struct {
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	LastTypedAt    time.Time `db:"last_typed_at" json:"last_typed_at"`
}

// Fresh reports whether the indicator is still live at the given instant.
func (t *TypingIndicator) Fresh(now time.Time) bool {
	return now.Sub(t.LastTypedAt) < TypingWindow
}

// Notification is a per-user record created as a side effect of another
// mutation. Exactly one of ConversationID / FriendRequestID is set,
// depending on the type.
type Notification struct {
	ID              string           `db:"id" json:"id"`
	UserID          string           `db:"user_id" json:"user_id"`
	Type            NotificationType `db:"type" json:"type"`
	SenderID        string           `db:"sender_id" json:"sender_id"`
	ConversationID  *string          `db:"conversation_id" json:"conversation_id,omitempty"`
	FriendRequestID *string          `db:"friend_request_id" json:"friend_request_id,omitempty"`
	IsRead          bool             `db:"is_read" json:"is_read"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}
