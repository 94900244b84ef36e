package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// Migrate runs a simple, idempotent set of CREATE TABLE / CREATE INDEX
// statements for the driftchat schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		// Users synced from the identity provider
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			external_id TEXT UNIQUE NOT NULL,
			email TEXT NOT NULL,
			name TEXT NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			is_online BOOLEAN NOT NULL DEFAULT FALSE,
			last_seen DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			friend_requests_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		// Friend requests: one row per ordered pair
		`CREATE TABLE IF NOT EXISTS friend_requests (
			id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL,
			recipient_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			responded_at DATETIME DEFAULT NULL,
			UNIQUE (sender_id, recipient_id),
			FOREIGN KEY (sender_id) REFERENCES users(id),
			FOREIGN KEY (recipient_id) REFERENCES users(id)
		);`,
		// Conversations; direct_key is the sorted user-ID pair for direct
		// chats and structurally prevents duplicates
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			name TEXT,
			creator_id TEXT,
			direct_key TEXT UNIQUE,
			last_message_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (creator_id) REFERENCES users(id)
		);`,
		// Membership; a user is either participant or invited, never both
		`CREATE TABLE IF NOT EXISTS conversation_members (
			conversation_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('participant', 'invited')),
			joined_at DATETIME DEFAULT NULL,
			PRIMARY KEY (conversation_id, user_id),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		);`,
		// Messages
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			content TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'text',
			timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			is_edited BOOLEAN NOT NULL DEFAULT FALSE,
			replied_to_message_id TEXT DEFAULT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id),
			FOREIGN KEY (sender_id) REFERENCES users(id)
		);`,
		// Reactions; composite key enforces the toggle invariant
		`CREATE TABLE IF NOT EXISTS message_reactions (
			message_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			emoji TEXT NOT NULL,
			PRIMARY KEY (message_id, user_id, emoji),
			FOREIGN KEY (message_id) REFERENCES messages(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);`,
		// Typing indicators; stale rows are filtered at read time
		`CREATE TABLE IF NOT EXISTS typing_indicators (
			conversation_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			last_typed_at DATETIME NOT NULL,
			PRIMARY KEY (conversation_id, user_id),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		);`,
		// Notifications
		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			conversation_id TEXT DEFAULT NULL,
			friend_request_id TEXT DEFAULT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (sender_id) REFERENCES users(id)
		);`,

		`CREATE INDEX IF NOT EXISTS idx_users_external_id ON users(external_id);`,
		`CREATE INDEX IF NOT EXISTS idx_users_is_online ON users(is_online);`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_recipient ON friend_requests(recipient_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_sender ON friend_requests(sender_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_last_message ON conversations(last_message_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_conv_members_user ON conversation_members(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_conv_members_conv ON conversation_members(conversation_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_timestamp ON messages(conversation_id, timestamp DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_replied_to ON messages(replied_to_message_id);`,
		`CREATE INDEX IF NOT EXISTS idx_typing_conversation ON typing_indicators(conversation_id);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(user_id, is_read);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_time ON notifications(user_id, created_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
