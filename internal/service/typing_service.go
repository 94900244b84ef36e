package service

import (
	"context"
	"time"

	"driftchat/internal/domain"
)

// TypingService maintains the ephemeral per-conversation typing state.
// Rows expire by read-time filtering against the freshness window; there
// is no background sweep, so stale rows linger until cleared or
// overwritten.
type TypingService struct {
	typing domain.TypingRepository
	users  domain.UserRepository

	now func() time.Time
}

func NewTypingService(typing domain.TypingRepository, users domain.UserRepository) *TypingService {
	return &TypingService{
		typing: typing,
		users:  users,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Tests use it to simulate elapsed
// time.
func (s *TypingService) WithClock(now func() time.Time) *TypingService {
	s.now = now
	return s
}

// Set records that the user is typing right now, creating or refreshing
// the indicator row.
func (s *TypingService) Set(ctx context.Context, conversationID, userID string) error {
	return s.typing.Upsert(ctx, conversationID, userID, s.now().UTC())
}

// Active returns the users currently typing in the conversation: rows
// younger than the freshness window, resolved to user records. Users that
// no longer resolve are dropped.
func (s *TypingService) Active(ctx context.Context, conversationID string) ([]*domain.User, error) {
	indicators, err := s.typing.ListForConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var fresh []string
	for _, ind := range indicators {
		if ind.Fresh(now) {
			fresh = append(fresh, ind.UserID)
		}
	}
	if len(fresh) == 0 {
		return []*domain.User{}, nil
	}

	users, err := s.users.GetByIDs(ctx, fresh)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

// Clear removes the user's indicator; a no-op when none exists.
func (s *TypingService) Clear(ctx context.Context, conversationID, userID string) error {
	return s.typing.Delete(ctx, conversationID, userID)
}
