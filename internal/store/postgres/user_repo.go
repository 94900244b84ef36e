package postgres

import (
	"context"
	"database/sql"
	"fmt"
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
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, external_id, email, name, avatar_url, is_online, last_seen, friend_requests_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.ExternalID, u.Email, u.Name, u.AvatarURL, u.IsOnline, u.LastSeen, u.FriendRequestsEnabled)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID)
}

func (r *UserRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	// pgx/stdlib supports []string as $1::text[].
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1::text[])`, ids)
}

func (r *UserRepo) ListAll(ctx context.Context) ([]*domain.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY name ASC`)
}

func (r *UserRepo) ListOnline(ctx context.Context) ([]*domain.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE is_online ORDER BY last_seen DESC`)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = $1, name = $2, avatar_url = $3, is_online = $4, last_seen = $5
		WHERE id = $6
	`, u.Email, u.Name, u.AvatarURL, u.IsOnline, u.LastSeen, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *UserRepo) SetOnlineStatus(ctx context.Context, id string, isOnline bool, lastSeen time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_online = $1, last_seen = $2 WHERE id = $3
	`, isOnline, lastSeen, id)
	if err != nil {
		return fmt.Errorf("set online status: %w", err)
	}
	return nil
}

func (r *UserRepo) SetFriendRequestsEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET friend_requests_enabled = $1 WHERE id = $2
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
