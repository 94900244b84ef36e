package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"driftchat/internal/domain"
)

const maxContentRunes = 5000

// MessageService appends messages, serves the paginated/live feed, and
// handles edits, deletes, reactions, and search. Sending fans out one
// message notification per other participant inside the same store
// transaction as the insert.
type MessageService struct {
	messages      domain.MessageRepository
	conversations domain.ConversationRepository
	users         domain.UserRepository
	friendships   *FriendshipService
}

func NewMessageService(
	messages domain.MessageRepository,
	conversations domain.ConversationRepository,
	users domain.UserRepository,
	friendships *FriendshipService,
) *MessageService {
	return &MessageService{
		messages:      messages,
		conversations: conversations,
		users:         users,
		friendships:   friendships,
	}
}

type MessageSendInput struct {
	ConversationID     string
	Content            string
	Type               domain.MessageType
	RecipientID        *string
	RepliedToMessageID *string
}

// Send appends a message. When RecipientID names a user who has restricted
// messaging to friends only, the sender must hold an accepted friendship
// with them in either direction.
func (s *MessageService) Send(ctx context.Context, in MessageSendInput, senderID string) (*domain.Message, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: message content cannot be empty", domain.ErrValidation)
	}
	if len([]rune(in.Content)) > maxContentRunes {
		return nil, fmt.Errorf("%w: message content exceeds %d characters", domain.ErrValidation, maxContentRunes)
	}
	switch in.Type {
	case domain.MessageText, domain.MessageImage, domain.MessageFile, domain.MessageVoice:
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", domain.ErrValidation, in.Type)
	}

	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, in.ConversationID)
	}
	if !conv.IsParticipant(senderID) {
		return nil, fmt.Errorf("%w: not a participant in this conversation", domain.ErrForbidden)
	}

	if in.RecipientID != nil {
		if err := s.checkFriendGate(ctx, senderID, *in.RecipientID); err != nil {
			return nil, err
		}
	}

	if in.RepliedToMessageID != nil {
		target, err := s.messages.GetByID(ctx, *in.RepliedToMessageID)
		if err != nil {
			return nil, fmt.Errorf("get reply target: %w", err)
		}
		if target == nil || target.ConversationID != in.ConversationID {
			return nil, fmt.Errorf("%w: replied-to message is not in this conversation", domain.ErrValidation)
		}
	}

	now := time.Now().UTC()
	msg := &domain.Message{
		ID:                 uuid.NewString(),
		ConversationID:     in.ConversationID,
		SenderID:           senderID,
		Content:            in.Content,
		Type:               in.Type,
		Timestamp:          now,
		Reactions:          []domain.Reaction{},
		RepliedToMessageID: in.RepliedToMessageID,
	}

	var fanOut []*domain.Notification
	for _, userID := range conv.Participants {
		if userID == senderID {
			continue
		}
		fanOut = append(fanOut, &domain.Notification{
			ID:             uuid.NewString(),
			UserID:         userID,
			Type:           domain.NotificationMessage,
			SenderID:       senderID,
			ConversationID: &in.ConversationID,
			CreatedAt:      now,
		})
	}

	if err := s.messages.Create(ctx, msg, fanOut); err != nil {
		return nil, err
	}
	return msg, nil
}

// checkFriendGate enforces the recipient's friends-only setting for 1:1
// messages.
func (s *MessageService) checkFriendGate(ctx context.Context, senderID, recipientID string) error {
	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("get recipient: %w", err)
	}
	if recipient == nil {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, recipientID)
	}
	if recipient.FriendRequestsEnabled {
		return nil
	}
	friends, err := s.friendships.AreFriends(ctx, senderID, recipientID)
	if err != nil {
		return err
	}
	if !friends {
		return fmt.Errorf("%w: this user only accepts messages from friends", domain.ErrForbidden)
	}
	return nil
}

// List returns the full conversation history in ascending timestamp order.
func (s *MessageService) List(ctx context.Context, conversationID, userID string) ([]*domain.Message, error) {
	if err := s.requireMember(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListForConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return msgs, nil
}

// MessagePage is one backward page of history. NextCursor is the oldest
// fetched timestamp, or nil at the start of history.
type MessagePage struct {
	Messages   []*domain.Message `json:"messages"`
	NextCursor *time.Time        `json:"next_cursor"`
}

// Paginate loads up to limit messages older than the cursor, returned in
// ascending order for display. A nil cursor starts from the newest.
func (s *MessageService) Paginate(ctx context.Context, conversationID, userID string, limit int, cursor *time.Time) (*MessagePage, error) {
	if err := s.requireMember(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	before := time.Now().UTC().Add(time.Minute)
	if cursor != nil {
		before = *cursor
	}

	msgs, err := s.messages.ListBefore(ctx, conversationID, before, limit)
	if err != nil {
		return nil, err
	}

	var nextCursor *time.Time
	if len(msgs) == limit {
		// Oldest fetched message; msgs is newest-first here.
		oldest := msgs[len(msgs)-1].Timestamp
		nextCursor = &oldest
	}

	// Reverse to chronological order for display.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return &MessagePage{Messages: msgs, NextCursor: nextCursor}, nil
}

// Edit overwrites a message's content and flags it edited. Only the sender
// may edit.
func (s *MessageService) Edit(ctx context.Context, callerID, messageID, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content cannot be empty", domain.ErrValidation)
	}
	if len([]rune(content)) > maxContentRunes {
		return nil, fmt.Errorf("%w: message content exceeds %d characters", domain.ErrValidation, maxContentRunes)
	}

	msg, err := s.mustGet(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != callerID {
		return nil, fmt.Errorf("%w: only the sender can edit a message", domain.ErrForbidden)
	}

	if err := s.messages.UpdateContent(ctx, messageID, content); err != nil {
		return nil, err
	}
	msg.Content = content
	msg.IsEdited = true
	return msg, nil
}

// Delete removes a message permanently. Replies that pointed at it keep
// their dangling reference. Only the sender may delete.
func (s *MessageService) Delete(ctx context.Context, callerID, messageID string) (*domain.Message, error) {
	msg, err := s.mustGet(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != callerID {
		return nil, fmt.Errorf("%w: only the sender can delete a message", domain.ErrForbidden)
	}
	if err := s.messages.Delete(ctx, messageID); err != nil {
		return nil, err
	}
	return msg, nil
}

// ToggleReaction adds the (user, emoji) reaction if absent and removes it
// if present. Returns the updated message and whether the reaction is now
// present.
func (s *MessageService) ToggleReaction(ctx context.Context, messageID, userID, emoji string) (*domain.Message, bool, error) {
	if emoji == "" {
		return nil, false, fmt.Errorf("%w: emoji is required", domain.ErrValidation)
	}
	msg, err := s.mustGet(ctx, messageID)
	if err != nil {
		return nil, false, err
	}

	reaction := domain.Reaction{UserID: userID, Emoji: emoji}
	present := false
	for _, r := range msg.Reactions {
		if r == reaction {
			present = true
			break
		}
	}

	if present {
		if err := s.messages.RemoveReaction(ctx, messageID, reaction); err != nil {
			return nil, false, err
		}
	} else {
		if err := s.messages.AddReaction(ctx, messageID, reaction); err != nil {
			return nil, false, err
		}
	}

	updated, err := s.mustGet(ctx, messageID)
	if err != nil {
		return nil, false, err
	}
	return updated, !present, nil
}

// Search does a case-insensitive substring match over the conversation's
// message content.
func (s *MessageService) Search(ctx context.Context, conversationID, userID, term string) ([]*domain.Message, error) {
	if err := s.requireMember(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(term) == "" {
		return []*domain.Message{}, nil
	}
	msgs, err := s.messages.Search(ctx, conversationID, term)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return msgs, nil
}

// ParticipantIDs returns the active participants of a conversation, for
// event broadcasts.
func (s *MessageService) ParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	return conv.Participants, nil
}

func (s *MessageService) requireMember(ctx context.Context, conversationID, userID string) error {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	if !conv.IsParticipant(userID) && !conv.IsInvited(userID) {
		return fmt.Errorf("%w: not a member of this conversation", domain.ErrForbidden)
	}
	return nil
}

func (s *MessageService) mustGet(ctx context.Context, messageID string) (*domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, messageID)
	}
	return msg, nil
}
