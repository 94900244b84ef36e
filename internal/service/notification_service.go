package service

import (
	"context"
	"fmt"

	"driftchat/internal/domain"
)

const defaultNotificationLimit = 20

// NotificationService serves the per-user notification feed. Creation
// happens inside the triggering mutations (message send, friend request,
// group invite); this service only reads and tracks read state.
type NotificationService struct {
	notifications domain.NotificationRepository
	users         domain.UserRepository
	conversations domain.ConversationRepository
	requests      domain.FriendRequestRepository
}

func NewNotificationService(
	notifications domain.NotificationRepository,
	users domain.UserRepository,
	conversations domain.ConversationRepository,
	requests domain.FriendRequestRepository,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		conversations: conversations,
		requests:      requests,
	}
}

// EnrichedNotification carries the notification plus the records a client
// needs to render it without further round trips.
type EnrichedNotification struct {
	*domain.Notification
	Sender        *domain.User          `json:"sender,omitempty"`
	Conversation  *domain.Conversation  `json:"conversation,omitempty"`
	OtherUser     *domain.User          `json:"other_user,omitempty"`
	FriendRequest *domain.FriendRequest `json:"friend_request,omitempty"`
}

// ListUnread returns all unread notifications, newest first, fully
// enriched. For direct conversations the other participant is resolved so
// the client can show who the chat is with.
func (s *NotificationService) ListUnread(ctx context.Context, userID string) ([]*EnrichedNotification, error) {
	notifs, err := s.notifications.ListUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, userID, notifs, true)
}

// List returns the most recent notifications regardless of read state.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]*EnrichedNotification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	notifs, err := s.notifications.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, userID, notifs, false)
}

func (s *NotificationService) enrich(ctx context.Context, userID string, notifs []*domain.Notification, withOtherUser bool) ([]*EnrichedNotification, error) {
	res := make([]*EnrichedNotification, 0, len(notifs))
	for _, n := range notifs {
		e := &EnrichedNotification{Notification: n}

		sender, err := s.users.GetByID(ctx, n.SenderID)
		if err != nil {
			return nil, fmt.Errorf("resolve sender: %w", err)
		}
		e.Sender = sender

		if n.ConversationID != nil {
			conv, err := s.conversations.GetByID(ctx, *n.ConversationID)
			if err != nil {
				return nil, fmt.Errorf("resolve conversation: %w", err)
			}
			e.Conversation = conv
			if withOtherUser && conv != nil && conv.Type == domain.ConversationDirect {
				for _, pid := range conv.Participants {
					if pid != userID {
						other, err := s.users.GetByID(ctx, pid)
						if err != nil {
							return nil, fmt.Errorf("resolve other participant: %w", err)
						}
						e.OtherUser = other
						break
					}
				}
			}
		}

		if n.FriendRequestID != nil {
			fr, err := s.requests.GetByID(ctx, *n.FriendRequestID)
			if err != nil {
				return nil, fmt.Errorf("resolve friend request: %w", err)
			}
			e.FriendRequest = fr
		}

		res = append(res, e)
	}
	return res, nil
}

// MarkRead marks a single notification read. The caller must own it.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	n, err := s.mustGet(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return fmt.Errorf("%w: not your notification", domain.ErrForbidden)
	}
	return s.notifications.MarkRead(ctx, notificationID)
}

// MarkAllRead marks every unread notification of the user read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notifications.MarkAllRead(ctx, userID)
}

// Delete removes a notification permanently. The caller must own it.
func (s *NotificationService) Delete(ctx context.Context, notificationID, userID string) error {
	n, err := s.mustGet(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return fmt.Errorf("%w: not your notification", domain.ErrForbidden)
	}
	return s.notifications.Delete(ctx, notificationID)
}

// UnreadCount is the badge number: unread notifications for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifications.CountUnread(ctx, userID)
}

func (s *NotificationService) mustGet(ctx context.Context, notificationID string) (*domain.Notification, error) {
	n, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if n == nil {
		return nil, fmt.Errorf("%w: notification %s", domain.ErrNotFound, notificationID)
	}
	return n, nil
}
