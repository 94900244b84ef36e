package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"driftchat/internal/domain"
)

type TypingRepo struct {
	db *sql.DB
}

func NewTypingRepo(db *sql.DB) *TypingRepo {
	return &TypingRepo{db: db}
}

var _ domain.TypingRepository = (*TypingRepo)(nil)

func (r *TypingRepo) Upsert(ctx context.Context, conversationID, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO typing_indicators (conversation_id, user_id, last_typed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (conversation_id, user_id) DO UPDATE SET last_typed_at = excluded.last_typed_at
	`, conversationID, userID, at)
	if err != nil {
		return fmt.Errorf("upsert typing indicator: %w", err)
	}
	return nil
}

func (r *TypingRepo) ListForConversation(ctx context.Context, conversationID string) ([]*domain.TypingIndicator, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT conversation_id, user_id, last_typed_at
		FROM typing_indicators
		WHERE conversation_id = ?
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list typing indicators: %w", err)
	}
	defer rows.Close()

	var res []*domain.TypingIndicator
	for rows.Next() {
		t := &domain.TypingIndicator{}
		if err := rows.Scan(&t.ConversationID, &t.UserID, &t.LastTypedAt); err != nil {
			return nil, fmt.Errorf("scan typing indicator: %w", err)
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r *TypingRepo) Delete(ctx context.Context, conversationID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM typing_indicators WHERE conversation_id = ? AND user_id = ?
	`, conversationID, userID)
	if err != nil {
		return fmt.Errorf("delete typing indicator: %w", err)
	}
	return nil
}
