package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"driftchat/internal/domain"
	"driftchat/internal/service"
)

func TestTypingIndicatorLifecycle(t *testing.T) {
	typing := new(MockTypingRepo)
	users := new(MockUserRepo)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	svc := service.NewTypingService(typing, users).WithClock(func() time.Time { return now })

	alice := &domain.User{ID: "u1", Name: "Alice"}
	indicatorAt := func(at time.Time) []*domain.TypingIndicator {
		return []*domain.TypingIndicator{
			{ConversationID: "c1", UserID: "u1", LastTypedAt: at},
		}
	}

	// Keystroke at t0.
	typing.On("Upsert", mock.Anything, "c1", "u1", base).Return(nil).Once()
	assert.NoError(t, svc.Set(context.Background(), "c1", "u1"))

	// One second later the indicator is visible.
	now = base.Add(time.Second)
	typing.On("ListForConversation", mock.Anything, "c1").Return(indicatorAt(base), nil).Once()
	users.On("GetByIDs", mock.Anything, []string{"u1"}).Return([]*domain.User{alice}, nil).Once()

	active, err := svc.Active(context.Background(), "c1")
	assert.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, "Alice", active[0].Name)

	// Just past the freshness window the row still exists but is filtered
	// out, with no user lookup.
	now = base.Add(3*time.Second + 100*time.Millisecond)
	typing.On("ListForConversation", mock.Anything, "c1").Return(indicatorAt(base), nil).Once()

	active, err = svc.Active(context.Background(), "c1")
	assert.NoError(t, err)
	assert.Empty(t, active)
	users.AssertNumberOfCalls(t, "GetByIDs", 1)

	// A new keystroke makes the user reappear.
	now = base.Add(4 * time.Second)
	typing.On("Upsert", mock.Anything, "c1", "u1", now).Return(nil).Once()
	assert.NoError(t, svc.Set(context.Background(), "c1", "u1"))

	refreshed := now
	now = base.Add(5 * time.Second)
	typing.On("ListForConversation", mock.Anything, "c1").Return(indicatorAt(refreshed), nil).Once()
	users.On("GetByIDs", mock.Anything, []string{"u1"}).Return([]*domain.User{alice}, nil).Once()

	active, err = svc.Active(context.Background(), "c1")
	assert.NoError(t, err)
	assert.Len(t, active, 1)

	typing.AssertExpectations(t)
}

func TestTypingBoundaryIsExclusive(t *testing.T) {
	typing := new(MockTypingRepo)
	users := new(MockUserRepo)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := service.NewTypingService(typing, users).WithClock(func() time.Time { return base.Add(domain.TypingWindow) })

	// Exactly at the window edge the indicator is already stale.
	typing.On("ListForConversation", mock.Anything, "c1").Return([]*domain.TypingIndicator{
		{ConversationID: "c1", UserID: "u1", LastTypedAt: base},
	}, nil)

	active, err := svc.Active(context.Background(), "c1")
	assert.NoError(t, err)
	assert.Empty(t, active)
}

func TestClearTyping(t *testing.T) {
	typing := new(MockTypingRepo)
	users := new(MockUserRepo)
	svc := service.NewTypingService(typing, users)

	// Clearing an absent indicator is a no-op, not an error.
	typing.On("Delete", mock.Anything, "c1", "u1").Return(nil)
	assert.NoError(t, svc.Clear(context.Background(), "c1", "u1"))
}
