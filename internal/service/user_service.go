package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"driftchat/internal/domain"
)

// UserService syncs identity-provider profiles into local user records and
// manages presence and per-user settings.
type UserService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

// IdentityProfile is the payload the identity provider supplies on sign-in.
type IdentityProfile struct {
	ExternalID string
	Email      string
	Name       string
	AvatarURL  string
}

// Upsert creates the local user on first sign-in and refreshes the profile
// on every subsequent one. The user comes back online either way.
func (s *UserService) Upsert(ctx context.Context, p IdentityProfile) (*domain.User, error) {
	if p.ExternalID == "" || p.Email == "" {
		return nil, fmt.Errorf("%w: external_id and email are required", domain.ErrValidation)
	}

	now := time.Now().UTC()
	existing, err := s.users.GetByExternalID(ctx, p.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("get user by external id: %w", err)
	}

	if existing != nil {
		existing.Email = p.Email
		existing.Name = p.Name
		existing.AvatarURL = p.AvatarURL
		existing.IsOnline = true
		existing.LastSeen = now
		if err := s.users.UpdateProfile(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	user := &domain.User{
		ID:                    uuid.NewString(),
		ExternalID:            p.ExternalID,
		Email:                 p.Email,
		Name:                  p.Name,
		AvatarURL:             p.AvatarURL,
		IsOnline:              true,
		LastSeen:              now,
		FriendRequestsEnabled: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return user, nil
}

func (s *UserService) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	return s.users.GetByExternalID(ctx, externalID)
}

func (s *UserService) ListAll(ctx context.Context) ([]*domain.User, error) {
	return s.users.ListAll(ctx)
}

func (s *UserService) ListOnline(ctx context.Context) ([]*domain.User, error) {
	return s.users.ListOnline(ctx)
}

func (s *UserService) SetOnline(ctx context.Context, id string, isOnline bool) error {
	return s.users.SetOnlineStatus(ctx, id, isOnline, time.Now().UTC())
}

// ToggleFriendRequests flips the friend-requests-enabled flag and returns
// the new value. When false, only accepted friends may start a direct chat
// with this user.
func (s *UserService) ToggleFriendRequests(ctx context.Context, id string) (bool, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	next := !user.FriendRequestsEnabled
	if err := s.users.SetFriendRequestsEnabled(ctx, id, next); err != nil {
		return false, err
	}
	return next, nil
}
