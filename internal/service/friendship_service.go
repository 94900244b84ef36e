package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"driftchat/internal/domain"
)

// FriendshipService manages the directed friend-request lifecycle. The
// symmetric "are friends" relation is derived from accepted requests, never
// stored.
type FriendshipService struct {
	requests      domain.FriendRequestRepository
	users         domain.UserRepository
	notifications domain.NotificationRepository
}

func NewFriendshipService(
	requests domain.FriendRequestRepository,
	users domain.UserRepository,
	notifications domain.NotificationRepository,
) *FriendshipService {
	return &FriendshipService{
		requests:      requests,
		users:         users,
		notifications: notifications,
	}
}

// Send creates a pending request from sender to recipient and notifies the
// recipient. A pending or accepted request in either direction blocks; a
// declined request in the send direction is reopened (superseding resend).
func (s *FriendshipService) Send(ctx context.Context, senderID, recipientID string) (*domain.FriendRequest, error) {
	if senderID == recipientID {
		return nil, fmt.Errorf("%w: cannot send a friend request to yourself", domain.ErrValidation)
	}
	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	if recipient == nil {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, recipientID)
	}

	now := time.Now().UTC()

	existing, err := s.requests.GetByUsers(ctx, senderID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("check existing request: %w", err)
	}
	reverse, err := s.requests.GetByUsers(ctx, recipientID, senderID)
	if err != nil {
		return nil, fmt.Errorf("check reverse request: %w", err)
	}

	if existing != nil && existing.Status == domain.FriendRequestAccepted ||
		reverse != nil && reverse.Status == domain.FriendRequestAccepted {
		return nil, fmt.Errorf("%w: already friends", domain.ErrPrecondition)
	}
	if existing != nil && existing.Status == domain.FriendRequestPending {
		return nil, fmt.Errorf("%w: friend request already sent", domain.ErrPrecondition)
	}
	if reverse != nil && reverse.Status == domain.FriendRequestPending {
		return nil, fmt.Errorf("%w: this user already sent you a friend request", domain.ErrPrecondition)
	}

	var request *domain.FriendRequest
	if existing != nil {
		// Declined earlier; reopen instead of inserting a second row.
		if err := s.requests.Reopen(ctx, existing.ID, now); err != nil {
			return nil, err
		}
		existing.Status = domain.FriendRequestPending
		existing.CreatedAt = now
		existing.RespondedAt = nil
		request = existing
	} else {
		request = &domain.FriendRequest{
			ID:          uuid.NewString(),
			SenderID:    senderID,
			RecipientID: recipientID,
			Status:      domain.FriendRequestPending,
			CreatedAt:   now,
		}
		if err := s.requests.Create(ctx, request); err != nil {
			return nil, err
		}
	}

	notif := &domain.Notification{
		ID:              uuid.NewString(),
		UserID:          recipientID,
		Type:            domain.NotificationFriendRequest,
		SenderID:        senderID,
		FriendRequestID: &request.ID,
		CreatedAt:       now,
	}
	if err := s.notifications.Create(ctx, notif); err != nil {
		return nil, fmt.Errorf("notify recipient: %w", err)
	}

	return request, nil
}

// Accept transitions a pending request to accepted and notifies the
// original sender. Only the recipient may respond.
func (s *FriendshipService) Accept(ctx context.Context, requestID, callerID string) (*domain.FriendRequest, error) {
	request, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RecipientID != callerID {
		return nil, fmt.Errorf("%w: only the recipient can respond to a friend request", domain.ErrForbidden)
	}

	now := time.Now().UTC()
	if err := s.requests.UpdateStatus(ctx, requestID, domain.FriendRequestAccepted, now); err != nil {
		return nil, err
	}
	request.Status = domain.FriendRequestAccepted
	request.RespondedAt = &now

	notif := &domain.Notification{
		ID:              uuid.NewString(),
		UserID:          request.SenderID,
		Type:            domain.NotificationFriendRequestAccepted,
		SenderID:        request.RecipientID,
		FriendRequestID: &request.ID,
		CreatedAt:       now,
	}
	if err := s.notifications.Create(ctx, notif); err != nil {
		return nil, fmt.Errorf("notify sender: %w", err)
	}

	return request, nil
}

// Decline transitions a pending request to declined and marks the
// recipient's notification for it read. Only the recipient may respond.
func (s *FriendshipService) Decline(ctx context.Context, requestID, callerID string) (*domain.FriendRequest, error) {
	request, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RecipientID != callerID {
		return nil, fmt.Errorf("%w: only the recipient can respond to a friend request", domain.ErrForbidden)
	}

	now := time.Now().UTC()
	if err := s.requests.UpdateStatus(ctx, requestID, domain.FriendRequestDeclined, now); err != nil {
		return nil, err
	}
	request.Status = domain.FriendRequestDeclined
	request.RespondedAt = &now

	if err := s.notifications.MarkReadByFriendRequest(ctx, request.ID, request.RecipientID); err != nil {
		return nil, fmt.Errorf("mark request notification read: %w", err)
	}

	return request, nil
}

func (s *FriendshipService) pendingRequest(ctx context.Context, requestID string) (*domain.FriendRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get friend request: %w", err)
	}
	if request == nil {
		return nil, fmt.Errorf("%w: friend request %s", domain.ErrNotFound, requestID)
	}
	if request.Status != domain.FriendRequestPending {
		return nil, fmt.Errorf("%w: request is not pending", domain.ErrPrecondition)
	}
	return request, nil
}

// FriendsOf derives the friend list: the other side of every accepted
// request involving the user. Users that no longer resolve are dropped.
func (s *FriendshipService) FriendsOf(ctx context.Context, userID string) ([]*domain.User, error) {
	sent, err := s.requests.ListBySender(ctx, userID, domain.FriendRequestAccepted)
	if err != nil {
		return nil, fmt.Errorf("list sent: %w", err)
	}
	received, err := s.requests.ListByRecipient(ctx, userID, domain.FriendRequestAccepted)
	if err != nil {
		return nil, fmt.Errorf("list received: %w", err)
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0, len(sent)+len(received))
	for _, fr := range sent {
		if _, ok := seen[fr.RecipientID]; !ok {
			seen[fr.RecipientID] = struct{}{}
			ids = append(ids, fr.RecipientID)
		}
	}
	for _, fr := range received {
		if _, ok := seen[fr.SenderID]; !ok {
			seen[fr.SenderID] = struct{}{}
			ids = append(ids, fr.SenderID)
		}
	}

	return s.users.GetByIDs(ctx, ids)
}

// EnrichedRequest pairs a friend request with its counterpart user.
type EnrichedRequest struct {
	*domain.FriendRequest
	Sender    *domain.User `json:"sender,omitempty"`
	Recipient *domain.User `json:"recipient,omitempty"`
}

// PendingFor returns pending requests addressed to the user, with senders.
func (s *FriendshipService) PendingFor(ctx context.Context, userID string) ([]*EnrichedRequest, error) {
	requests, err := s.requests.ListByRecipient(ctx, userID, domain.FriendRequestPending)
	if err != nil {
		return nil, err
	}
	res := make([]*EnrichedRequest, 0, len(requests))
	for _, fr := range requests {
		sender, err := s.users.GetByID(ctx, fr.SenderID)
		if err != nil {
			return nil, err
		}
		res = append(res, &EnrichedRequest{FriendRequest: fr, Sender: sender})
	}
	return res, nil
}

// SentBy returns pending requests the user has sent, with recipients.
func (s *FriendshipService) SentBy(ctx context.Context, userID string) ([]*EnrichedRequest, error) {
	requests, err := s.requests.ListBySender(ctx, userID, domain.FriendRequestPending)
	if err != nil {
		return nil, err
	}
	res := make([]*EnrichedRequest, 0, len(requests))
	for _, fr := range requests {
		recipient, err := s.users.GetByID(ctx, fr.RecipientID)
		if err != nil {
			return nil, err
		}
		res = append(res, &EnrichedRequest{FriendRequest: fr, Recipient: recipient})
	}
	return res, nil
}

// RequestStatus describes the relationship between two users from the
// first user's perspective.
type RequestStatus struct {
	Status    string  `json:"status"` // pending | accepted | declined | none
	Direction *string `json:"direction"`
	RequestID *string `json:"request_id"`
}

func (s *FriendshipService) Status(ctx context.Context, userID, targetID string) (*RequestStatus, error) {
	sent, err := s.requests.GetByUsers(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}
	if sent != nil {
		dir := "sent"
		return &RequestStatus{Status: string(sent.Status), Direction: &dir, RequestID: &sent.ID}, nil
	}

	received, err := s.requests.GetByUsers(ctx, targetID, userID)
	if err != nil {
		return nil, err
	}
	if received != nil {
		dir := "received"
		return &RequestStatus{Status: string(received.Status), Direction: &dir, RequestID: &received.ID}, nil
	}

	return &RequestStatus{Status: "none"}, nil
}

// AreFriends reports whether an accepted request exists in either
// direction. Used as a gating predicate; never cached.
func (s *FriendshipService) AreFriends(ctx context.Context, a, b string) (bool, error) {
	request, err := s.requests.GetByUsers(ctx, a, b)
	if err != nil {
		return false, err
	}
	if request != nil && request.Status == domain.FriendRequestAccepted {
		return true, nil
	}

	reverse, err := s.requests.GetByUsers(ctx, b, a)
	if err != nil {
		return false, err
	}
	return reverse != nil && reverse.Status == domain.FriendRequestAccepted, nil
}
