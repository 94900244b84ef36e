package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"driftchat/internal/domain"
)

type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

var _ domain.NotificationRepository = (*NotificationRepo)(nil)

const notificationColumns = `id, user_id, type, sender_id, conversation_id, friend_request_id, is_read, created_at`

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, sender_id, conversation_id, friend_request_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Type, n.SenderID, n.ConversationID, n.FriendRequestID, n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	n := &domain.Notification{}
	var convID, frID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications WHERE id = ?
	`, id).Scan(&n.ID, &n.UserID, &n.Type, &n.SenderID, &convID, &frID, &n.IsRead, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if convID.Valid {
		n.ConversationID = &convID.String
	}
	if frID.Valid {
		n.FriendRequestID = &frID.String
	}
	return n, nil
}

func (r *NotificationRepo) ListUnread(ctx context.Context, userID string) ([]*domain.Notification, error) {
	return r.queryNotifications(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ? AND is_read = 0
		ORDER BY created_at DESC
	`, userID)
}

func (r *NotificationRepo) ListRecent(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	return r.queryNotifications(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0
	`, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (r *NotificationRepo) MarkReadByFriendRequest(ctx context.Context, friendRequestID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1 WHERE friend_request_id = ? AND user_id = ?
	`, friendRequestID, userID)
	if err != nil {
		return fmt.Errorf("mark friend request notification read: %w", err)
	}
	return nil
}

func (r *NotificationRepo) MarkReadByConversation(ctx context.Context, conversationID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1 WHERE conversation_id = ? AND user_id = ? AND type = ?
	`, conversationID, userID, domain.NotificationGroupInvite)
	if err != nil {
		return fmt.Errorf("mark invite notification read: %w", err)
	}
	return nil
}

func (r *NotificationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (r *NotificationRepo) queryNotifications(ctx context.Context, query string, args ...any) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var res []*domain.Notification
	for rows.Next() {
		n := &domain.Notification{}
		var convID, frID sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.SenderID, &convID, &frID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if convID.Valid {
			n.ConversationID = &convID.String
		}
		if frID.Valid {
			n.FriendRequestID = &frID.String
		}
		res = append(res, n)
	}
	return res, rows.Err()
}
