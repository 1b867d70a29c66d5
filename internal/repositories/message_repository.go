package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

// MessageRepository defines interactions for direct messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID, receiverID int64, content string) (models.Message, error)
	ListConversation(ctx context.Context, userA, userB int64) ([]models.Message, error)
	LastMessage(ctx context.Context, userA, userB int64) (models.Message, bool, error)
	CountUnread(ctx context.Context, receiverID, senderID int64) (int, error)
	MarkRead(ctx context.Context, receiverID, senderID int64) ([]int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, sender_id, receiver_id, content, created_at, is_read`

// CreateMessage stores a message; created_at is assigned by the database.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID, receiverID int64, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (sender_id, receiver_id, content) VALUES ($1, $2, $3) RETURNING `+messageColumns, senderID, receiverID, content).
		StructScan(&msg)
	return msg, err
}

// ListConversation returns every message exchanged between the pair, oldest first.
func (r *MessageRepo) ListConversation(ctx context.Context, userA, userB int64) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY created_at ASC, id ASC`
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, query, userA, userB)
	return msgs, err
}

// LastMessage returns the newest message of the pair; ok is false when none exist.
func (r *MessageRepo) LastMessage(ctx context.Context, userA, userB int64) (models.Message, bool, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY created_at DESC, id DESC
        LIMIT 1`
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, query, userA, userB)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, false, nil
	}
	if err != nil {
		return models.Message{}, false, err
	}
	return msg, true, nil
}

// CountUnread counts unread messages sent by senderID to receiverID.
func (r *MessageRepo) CountUnread(ctx context.Context, receiverID, senderID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE receiver_id=$1 AND sender_id=$2 AND is_read = FALSE`, receiverID, senderID)
	return count, err
}

// MarkRead flags every unread message from senderID to receiverID and returns the ids it changed.
func (r *MessageRepo) MarkRead(ctx context.Context, receiverID, senderID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, `UPDATE messages SET is_read = TRUE WHERE receiver_id=$1 AND sender_id=$2 AND is_read = FALSE RETURNING id`, receiverID, senderID)
	if err != nil {
		return nil, err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
