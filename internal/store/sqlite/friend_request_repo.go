package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"driftchat/internal/domain"
)

type FriendRequestRepo struct {
	db *sql.DB
}

func NewFriendRequestRepo(db *sql.DB) *FriendRequestRepo {
	return &FriendRequestRepo{db: db}
}

var _ domain.FriendRequestRepository = (*FriendRequestRepo)(nil)

const friendRequestColumns = `id, sender_id, recipient_id, status, created_at, responded_at`

func (r *FriendRequestRepo) Create(ctx context.Context, fr *domain.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (id, sender_id, recipient_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, fr.ID, fr.SenderID, fr.RecipientID, fr.Status, fr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert friend request: %w", err)
	}
	return nil
}

func (r *FriendRequestRepo) GetByID(ctx context.Context, id string) (*domain.FriendRequest, error) {
	return r.scanRequest(ctx, `SELECT `+friendRequestColumns+` FROM friend_requests WHERE id = ?`, id)
}

func (r *FriendRequestRepo) GetByUsers(ctx context.Context, senderID, recipientID string) (*domain.FriendRequest, error) {
	return r.scanRequest(ctx, `
		SELECT `+friendRequestColumns+`
		FROM friend_requests
		WHERE sender_id = ? AND recipient_id = ?
	`, senderID, recipientID)
}

func (r *FriendRequestRepo) ListByRecipient(ctx context.Context, recipientID string, status domain.FriendRequestStatus) ([]*domain.FriendRequest, error) {
	return r.queryRequests(ctx, `
		SELECT `+friendRequestColumns+`
		FROM friend_requests
		WHERE recipient_id = ? AND status = ?
		ORDER BY created_at DESC
	`, recipientID, status)
}

func (r *FriendRequestRepo) ListBySender(ctx context.Context, senderID string, status domain.FriendRequestStatus) ([]*domain.FriendRequest, error) {
	return r.queryRequests(ctx, `
		SELECT `+friendRequestColumns+`
		FROM friend_requests
		WHERE sender_id = ? AND status = ?
		ORDER BY created_at DESC
	`, senderID, status)
}

func (r *FriendRequestRepo) UpdateStatus(ctx context.Context, id string, status domain.FriendRequestStatus, respondedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE friend_requests SET status = ?, responded_at = ? WHERE id = ?
	`, status, respondedAt, id)
	if err != nil {
		return fmt.Errorf("update friend request status: %w", err)
	}
	return nil
}

func (r *FriendRequestRepo) Reopen(ctx context.Context, id string, createdAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE friend_requests
		SET status = ?, created_at = ?, responded_at = NULL
		WHERE id = ?
	`, domain.FriendRequestPending, createdAt, id)
	if err != nil {
		return fmt.Errorf("reopen friend request: %w", err)
	}
	return nil
}

func (r *FriendRequestRepo) scanRequest(ctx context.Context, query string, args ...any) (*domain.FriendRequest, error) {
	fr := &domain.FriendRequest{}
	var respondedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&fr.ID,
		&fr.SenderID,
		&fr.RecipientID,
		&fr.Status,
		&fr.CreatedAt,
		&respondedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friend request: %w", err)
	}
	if respondedAt.Valid {
		fr.RespondedAt = &respondedAt.Time
	}
	return fr, nil
}

func (r *FriendRequestRepo) queryRequests(ctx context.Context, query string, args ...any) ([]*domain.FriendRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	defer rows.Close()

	var res []*domain.FriendRequest
	for rows.Next() {
		fr := &domain.FriendRequest{}
		var respondedAt sql.NullTime
		if err := rows.Scan(
			&fr.ID,
			&fr.SenderID,
			&fr.RecipientID,
			&fr.Status,
			&fr.CreatedAt,
			&respondedAt,
		); err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		if respondedAt.Valid {
			fr.RespondedAt = &respondedAt.Time
		}
		res = append(res, fr)
	}
	return res, rows.Err()
}
