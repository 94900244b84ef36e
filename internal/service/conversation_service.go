package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"driftchat/internal/domain"
)

// ConversationService creates and maintains direct and group
// conversations, including the invite-accept membership flow for groups.
type ConversationService struct {
	conversations domain.ConversationRepository
	users         domain.UserRepository
	notifications domain.NotificationRepository
}

func NewConversationService(
	conversations domain.ConversationRepository,
	users domain.UserRepository,
	notifications domain.NotificationRepository,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		users:         users,
		notifications: notifications,
	}
}

// DirectKey is the canonical identity of a direct conversation: the two
// user IDs sorted and joined. A unique index on it makes get-or-create
// race-safe without scanning the collection.
func DirectKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

type ConversationCreateInput struct {
	Type         domain.ConversationType
	Name         *string
	Participants []string
	CreatorID    string
}

// Create builds a conversation. For groups the creator is the only initial
// participant; everyone else requested becomes an invitee and gets a
// group_invite notification. Direct creation activates both participants
// immediately.
func (s *ConversationService) Create(ctx context.Context, in ConversationCreateInput) (*domain.Conversation, error) {
	if len(in.Participants) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", domain.ErrValidation)
	}

	now := time.Now().UTC()

	switch in.Type {
	case domain.ConversationGroup:
		invited := make([]string, 0, len(in.Participants))
		seen := map[string]struct{}{in.CreatorID: {}}
		for _, id := range in.Participants {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			invited = append(invited, id)
		}

		creatorID := in.CreatorID
		conv := &domain.Conversation{
			ID:            uuid.NewString(),
			Type:          domain.ConversationGroup,
			Name:          in.Name,
			CreatorID:     &creatorID,
			Participants:  []string{in.CreatorID},
			InvitedUsers:  invited,
			LastMessageAt: now,
		}
		if err := s.conversations.Create(ctx, conv); err != nil {
			return nil, err
		}

		for _, userID := range invited {
			notif := &domain.Notification{
				ID:             uuid.NewString(),
				UserID:         userID,
				Type:           domain.NotificationGroupInvite,
				SenderID:       in.CreatorID,
				ConversationID: &conv.ID,
				CreatedAt:      now,
			}
			if err := s.notifications.Create(ctx, notif); err != nil {
				return nil, fmt.Errorf("notify invitee: %w", err)
			}
		}
		return conv, nil

	case domain.ConversationDirect:
		if len(in.Participants) != 2 {
			return nil, fmt.Errorf("%w: direct conversations require exactly two participants", domain.ErrValidation)
		}
		return s.GetOrCreateDirect(ctx, in.Participants[0], in.Participants[1])

	default:
		return nil, fmt.Errorf("%w: unknown conversation type %q", domain.ErrValidation, in.Type)
	}
}

// GetOrCreateDirect is the idempotent "start chat" entry point: for any
// unordered user pair it returns the one direct conversation between them,
// creating it on first use.
func (s *ConversationService) GetOrCreateDirect(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	if userA == userB {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", domain.ErrValidation)
	}

	key := DirectKey(userA, userB)
	existing, err := s.conversations.GetByDirectKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find direct conversation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	conv := &domain.Conversation{
		ID:            uuid.NewString(),
		Type:          domain.ConversationDirect,
		DirectKey:     &key,
		Participants:  []string{userA, userB},
		InvitedUsers:  []string{},
		LastMessageAt: time.Now().UTC(),
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		// Lost a creation race; the unique index kept the invariant.
		if raced, lookupErr := s.conversations.GetByDirectKey(ctx, key); lookupErr == nil && raced != nil {
			return raced, nil
		}
		return nil, err
	}
	return conv, nil
}

// Get returns a conversation if the caller is a participant or invitee.
func (s *ConversationService) Get(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	conv, err := s.mustGet(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(userID) && !conv.IsInvited(userID) {
		return nil, fmt.Errorf("%w: not a member of this conversation", domain.ErrForbidden)
	}
	return conv, nil
}

// ListForUser returns every conversation the user participates in or has a
// pending invitation to, most recently active first.
func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	return s.conversations.ListForUser(ctx, userID)
}

// AddParticipant adds a user straight into a group's participant set.
func (s *ConversationService) AddParticipant(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	conv, err := s.mustGet(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Type != domain.ConversationGroup {
		return nil, fmt.Errorf("%w: participants can only be added to group conversations", domain.ErrValidation)
	}
	if conv.IsParticipant(userID) {
		return nil, fmt.Errorf("%w: user is already in this group", domain.ErrPrecondition)
	}
	if conv.IsInvited(userID) {
		return nil, fmt.Errorf("%w: user already has a pending invitation", domain.ErrPrecondition)
	}
	if err := s.conversations.AddMember(ctx, conversationID, userID, domain.RoleParticipant); err != nil {
		return nil, err
	}
	conv.Participants = append(conv.Participants, userID)
	return conv, nil
}

// RemoveParticipant removes a user from a group's participant set.
func (s *ConversationService) RemoveParticipant(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	conv, err := s.mustGet(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Type != domain.ConversationGroup {
		return nil, fmt.Errorf("%w: participants can only be removed from group conversations", domain.ErrValidation)
	}
	if !conv.IsParticipant(userID) {
		return nil, fmt.Errorf("%w: user is not in this group", domain.ErrPrecondition)
	}
	if err := s.conversations.RemoveMember(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return s.mustGet(ctx, conversationID)
}

// AcceptInvitation moves the user from invitees to participants and marks
// the matching group_invite notification read, atomically.
func (s *ConversationService) AcceptInvitation(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	conv, err := s.mustGet(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsInvited(userID) {
		return nil, fmt.Errorf("%w: user is not invited to this group", domain.ErrPrecondition)
	}
	if err := s.conversations.PromoteInvite(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return s.mustGet(ctx, conversationID)
}

// DeclineInvitation removes the user from the invitee set and marks the
// matching group_invite notification read (same soft policy as accept).
func (s *ConversationService) DeclineInvitation(ctx context.Context, conversationID, userID string) error {
	conv, err := s.mustGet(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.IsInvited(userID) {
		return fmt.Errorf("%w: user is not invited to this group", domain.ErrPrecondition)
	}
	if err := s.conversations.RemoveMember(ctx, conversationID, userID); err != nil {
		return err
	}
	if err := s.notifications.MarkReadByConversation(ctx, conversationID, userID); err != nil {
		return fmt.Errorf("mark invite notification read: %w", err)
	}
	return nil
}

// SearchConversations does a case-insensitive substring match over the
// names of the caller's conversations. Direct conversations have no name
// and never match.
func (s *ConversationService) SearchConversations(ctx context.Context, userID, term string) ([]*domain.Conversation, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []*domain.Conversation{}, nil
	}
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	res := make([]*domain.Conversation, 0)
	for _, c := range convs {
		if c.Name != nil && strings.Contains(strings.ToLower(*c.Name), needle) {
			res = append(res, c)
		}
	}
	return res, nil
}

func (s *ConversationService) mustGet(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	return conv, nil
}
