package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"driftchat/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

const messageColumns = `id, conversation_id, sender_id, content, type, timestamp, is_edited, replied_to_message_id`

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message, fanOut []*domain.Notification) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, type, timestamp, is_edited, replied_to_message_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.ConversationID, m.SenderID, m.Content, m.Type, m.Timestamp, m.IsEdited, m.RepliedToMessageID); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations SET last_message_at = ? WHERE id = ?
	`, m.Timestamp, m.ConversationID); err != nil {
		return fmt.Errorf("bump last_message_at: %w", err)
	}

	for _, n := range fanOut {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notifications (id, user_id, type, sender_id, conversation_id, friend_request_id, is_read, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, n.ID, n.UserID, n.Type, n.SenderID, n.ConversationID, n.FriendRequestID, n.IsRead, n.CreatedAt); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	m := &domain.Message{}
	var repliedTo sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id).Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Type, &m.Timestamp, &m.IsEdited, &repliedTo,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if repliedTo.Valid {
		m.RepliedToMessageID = &repliedTo.String
	}
	if err := r.loadReactions(ctx, []*domain.Message{m}); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	return r.queryMessages(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp ASC
	`, conversationID)
}

func (r *MessageRepo) ListBefore(ctx context.Context, conversationID string, before time.Time, limit int) ([]*domain.Message, error) {
	return r.queryMessages(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = ? AND timestamp < ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, conversationID, before, limit)
}

func (r *MessageRepo) UpdateContent(ctx context.Context, id, content string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages SET content = ?, is_edited = 1 WHERE id = ?
	`, content, id)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (r *MessageRepo) Search(ctx context.Context, conversationID, term string) ([]*domain.Message, error) {
	// Escape LIKE wildcards so the term is matched literally.
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return r.queryMessages(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = ? AND lower(content) LIKE '%' || lower(?) || '%' ESCAPE '\'
		ORDER BY timestamp ASC
	`, conversationID, escaped)
}

func (r *MessageRepo) AddReaction(ctx context.Context, messageID string, reaction domain.Reaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO message_reactions (message_id, user_id, emoji)
		VALUES (?, ?, ?)
	`, messageID, reaction.UserID, reaction.Emoji)
	if err != nil {
		return fmt.Errorf("add reaction: %w", err)
	}
	return nil
}

func (r *MessageRepo) RemoveReaction(ctx context.Context, messageID string, reaction domain.Reaction) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM message_reactions WHERE message_id = ? AND user_id = ? AND emoji = ?
	`, messageID, reaction.UserID, reaction.Emoji)
	if err != nil {
		return fmt.Errorf("remove reaction: %w", err)
	}
	return nil
}

func (r *MessageRepo) queryMessages(ctx context.Context, query string, args ...any) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		var repliedTo sql.NullString
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Type, &m.Timestamp, &m.IsEdited, &repliedTo,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if repliedTo.Valid {
			m.RepliedToMessageID = &repliedTo.String
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadReactions(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// loadReactions hydrates the Reactions slice for the given messages with a
// single IN query.
func (r *MessageRepo) loadReactions(ctx context.Context, msgs []*domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Message, len(msgs))
	args := make([]any, 0, len(msgs))
	for _, m := range msgs {
		m.Reactions = []domain.Reaction{}
		byID[m.ID] = m
		args = append(args, m.ID)
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(msgs)), ",")

	rows, err := r.db.QueryContext(ctx, `
		SELECT message_id, user_id, emoji
		FROM message_reactions
		WHERE message_id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("load reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID string
		var reaction domain.Reaction
		if err := rows.Scan(&messageID, &reaction.UserID, &reaction.Emoji); err != nil {
			return fmt.Errorf("scan reaction: %w", err)
		}
		if m, ok := byID[messageID]; ok {
			m.Reactions = append(m.Reactions, reaction)
		}
	}
	return rows.Err()
}
