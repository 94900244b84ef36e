package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"driftchat/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

const conversationColumns = `id, type, name, creator_id, direct_key, last_message_at, created_at`

func (r *ConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, type, name, creator_id, direct_key, last_message_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.Type, c.Name, c.CreatorID, c.DirectKey, c.LastMessageAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	for _, uid := range c.Participants {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_members (conversation_id, user_id, role, joined_at)
			VALUES ($1, $2, $3, NOW())
		`, c.ID, uid, domain.RoleParticipant); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	for _, uid := range c.InvitedUsers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_members (conversation_id, user_id, role)
			VALUES ($1, $2, $3)
		`, c.ID, uid, domain.RoleInvited); err != nil {
			return fmt.Errorf("insert invitee: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	return r.scanConversation(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
}

func (r *ConversationRepo) GetByDirectKey(ctx context.Context, key string) (*domain.Conversation, error) {
	return r.scanConversation(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE direct_key = $1`, key)
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	query := `
		SELECT c.id, c.type, c.name, c.creator_id, c.direct_key, c.last_message_at, c.created_at
		FROM conversations c
		JOIN conversation_members cm ON cm.conversation_id = c.id
		WHERE cm.user_id = $1
		ORDER BY c.last_message_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var res []*domain.Conversation
	for rows.Next() {
		c := &domain.Conversation{}
		var name, creatorID, directKey sql.NullString
		if err := rows.Scan(&c.ID, &c.Type, &name, &creatorID, &directKey, &c.LastMessageAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		assignNullable(c, name, creatorID, directKey)
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range res {
		if err := r.loadMembers(ctx, c); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *ConversationRepo) AddMember(ctx context.Context, conversationID, userID string, role domain.MemberRole) error {
	var joinedAt any
	if role == domain.RoleParticipant {
		joinedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversation_members (conversation_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
	`, conversationID, userID, role, joinedAt)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (r *ConversationRepo) RemoveMember(ctx context.Context, conversationID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM conversation_members WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (r *ConversationRepo) PromoteInvite(ctx context.Context, conversationID, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE conversation_members
		SET role = $1, joined_at = NOW()
		WHERE conversation_id = $2 AND user_id = $3 AND role = $4
	`, domain.RoleParticipant, conversationID, userID, domain.RoleInvited)
	if err != nil {
		return fmt.Errorf("promote invite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrPrecondition
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE user_id = $1 AND type = $2 AND conversation_id = $3
	`, userID, domain.NotificationGroupInvite, conversationID); err != nil {
		return fmt.Errorf("mark invite notification read: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *ConversationRepo) scanConversation(ctx context.Context, query string, args ...any) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	var name, creatorID, directKey sql.NullString
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.Type, &name, &creatorID, &directKey, &c.LastMessageAt, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	assignNullable(c, name, creatorID, directKey)
	if err := r.loadMembers(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func assignNullable(c *domain.Conversation, name, creatorID, directKey sql.NullString) {
	if name.Valid {
		c.Name = &name.String
	}
	if creatorID.Valid {
		c.CreatorID = &creatorID.String
	}
	if directKey.Valid {
		c.DirectKey = &directKey.String
	}
}

func (r *ConversationRepo) loadMembers(ctx context.Context, c *domain.Conversation) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, role FROM conversation_members WHERE conversation_id = $1
	`, c.ID)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	c.Participants = c.Participants[:0]
	c.InvitedUsers = c.InvitedUsers[:0]
	for rows.Next() {
		var userID string
		var role domain.MemberRole
		if err := rows.Scan(&userID, &role); err != nil {
			return fmt.Errorf("scan member: %w", err)
		}
		if role == domain.RoleInvited {
			c.InvitedUsers = append(c.InvitedUsers, userID)
		} else {
			c.Participants = append(c.Participants, userID)
		}
	}
	return rows.Err()
}
