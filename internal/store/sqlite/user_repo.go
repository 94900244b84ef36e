package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"driftchat/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ domain.UserRepository = (*UserRepo)(nil)

const userColumns = `id, external_id, email, name, avatar_url, is_online, last_seen, friend_requests_enabled, created_at`

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, external_id, email, name, avatar_url, is_online, last_seen, friend_requests_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.ExternalID, u.Email, u.Name, u.AvatarURL, u.IsOnline, u.LastSeen, u.FriendRequestsEnabled)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)
}

func (r *UserRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders+`)`, args...)
}

func (r *UserRepo) ListAll(ctx context.Context) ([]*domain.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY name ASC`)
}

func (r *UserRepo) ListOnline(ctx context.Context) ([]*domain.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE is_online = 1 ORDER BY last_seen DESC`)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = ?, name = ?, avatar_url = ?, is_online = ?, last_seen = ?
		WHERE id = ?
	`, u.Email, u.Name, u.AvatarURL, u.IsOnline, u.LastSeen, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *UserRepo) SetOnlineStatus(ctx context.Context, id string, isOnline bool, lastSeen time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_online = ?, last_seen = ? WHERE id = ?
	`, isOnline, lastSeen, id)
	if err != nil {
		return fmt.Errorf("set online status: %w", err)
	}
	return nil
}

func (r *UserRepo) SetFriendRequestsEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET friend_requests_enabled = ? WHERE id = ?
	`, enabled, id)
	if err != nil {
		return fmt.Errorf("set friend_requests_enabled: %w", err)
	}
	return nil
}

func (r *UserRepo) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID,
		&u.ExternalID,
		&u.Email,
		&u.Name,
		&u.AvatarURL,
		&u.IsOnline,
		&u.LastSeen,
		&u.FriendRequestsEnabled,
		&u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) queryUsers(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(
			&u.ID,
			&u.ExternalID,
			&u.Email,
			&u.Name,
			&u.AvatarURL,
			&u.IsOnline,
			&u.LastSeen,
			&u.FriendRequestsEnabled,
			&u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
