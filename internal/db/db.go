package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"messaging-service/internal/logger"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// The users table belongs to the profile service; it is created here only so a fresh
// database can serve the messaging endpoints.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            nickname TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            avatar TEXT NOT NULL DEFAULT '',
            tick BOOLEAN NOT NULL DEFAULT FALSE
        );`,
	`CREATE TABLE IF NOT EXISTS messages (
            id BIGSERIAL PRIMARY KEY,
            sender_id BIGINT NOT NULL,
            receiver_id BIGINT NOT NULL,
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
            is_read BOOLEAN NOT NULL DEFAULT FALSE
        );`,
	`CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages (sender_id, receiver_id, created_at, id);`,
	`CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages (receiver_id, sender_id) WHERE is_read = FALSE;`,
	`CREATE TABLE IF NOT EXISTS chat_conversations (
            id BIGSERIAL PRIMARY KEY,
            user_id1 BIGINT NOT NULL,
            user_id2 BIGINT NOT NULL,
            last_message_id BIGINT,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (user_id1 < user_id2),
            UNIQUE (user_id1, user_id2)
        );`,
	`CREATE INDEX IF NOT EXISTS idx_chat_conversations_user2 ON chat_conversations (user_id2);`,
}

func runMigrations(db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	logger.Info("database migrations applied")
	return nil
}
