package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the driftchat schema on
// PostgreSQL.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                      TEXT        PRIMARY KEY,
			external_id             TEXT        UNIQUE NOT NULL,
			email                   TEXT        NOT NULL,
			name                    TEXT        NOT NULL,
			avatar_url              TEXT        NOT NULL DEFAULT '',
			is_online               BOOLEAN     NOT NULL DEFAULT FALSE,
			last_seen               TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			friend_requests_enabled BOOLEAN     NOT NULL DEFAULT TRUE,
			created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS friend_requests (
			id           TEXT        PRIMARY KEY,
			sender_id    TEXT        NOT NULL REFERENCES users(id),
			recipient_id TEXT        NOT NULL REFERENCES users(id),
			status       TEXT        NOT NULL DEFAULT 'pending',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			responded_at TIMESTAMPTZ,
			UNIQUE (sender_id, recipient_id)
		)`,

		`CREATE TABLE IF NOT EXISTS conversations (
			id              TEXT        PRIMARY KEY,
			type            TEXT        NOT NULL,
			name            TEXT,
			creator_id      TEXT        REFERENCES users(id),
			direct_key      TEXT        UNIQUE,
			last_message_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS conversation_members (
			conversation_id TEXT NOT NULL REFERENCES conversations(id),
			user_id         TEXT NOT NULL REFERENCES users(id),
			role            TEXT NOT NULL CHECK (role IN ('participant', 'invited')),
			joined_at       TIMESTAMPTZ,
			PRIMARY KEY (conversation_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id                    TEXT        PRIMARY KEY,
			conversation_id       TEXT        NOT NULL REFERENCES conversations(id),
			sender_id             TEXT        NOT NULL REFERENCES users(id),
			content               TEXT        NOT NULL,
			type                  TEXT        NOT NULL DEFAULT 'text',
			timestamp             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_edited             BOOLEAN     NOT NULL DEFAULT FALSE,
			replied_to_message_id TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS message_reactions (
			message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			emoji      TEXT NOT NULL,
			PRIMARY KEY (message_id, user_id, emoji)
		)`,

		`CREATE TABLE IF NOT EXISTS typing_indicators (
			conversation_id TEXT        NOT NULL REFERENCES conversations(id),
			user_id         TEXT        NOT NULL REFERENCES users(id),
			last_typed_at   TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (conversation_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id                TEXT        PRIMARY KEY,
			user_id           TEXT        NOT NULL REFERENCES users(id),
			type              TEXT        NOT NULL,
			sender_id         TEXT        NOT NULL REFERENCES users(id),
			conversation_id   TEXT,
			friend_request_id TEXT,
			is_read           BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_users_external_id ON users(external_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_is_online ON users(is_online)`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_recipient ON friend_requests(recipient_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_sender ON friend_requests(sender_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_last_message ON conversations(last_message_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_conv_members_user ON conversation_members(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conv_members_conv ON conversation_members(conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_timestamp ON messages(conversation_id, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_replied_to ON messages(replied_to_message_id)`,
		`CREATE INDEX IF NOT EXISTS idx_typing_conversation ON typing_indicators(conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(user_id, is_read)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_time ON notifications(user_id, created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
