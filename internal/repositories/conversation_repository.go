package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrSelfConversation     = errors.New("cannot create conversation with self")
)

const uniqueViolation = pq.ErrorCode("23505")

// ConversationRepository abstracts the per-pair conversation directory.
type ConversationRepository interface {
	FindOrCreate(ctx context.Context, userA, userB int64) (models.Conversation, error)
	Find(ctx context.Context, userA, userB int64) (models.Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Conversation, error)
	RecordNewMessage(ctx context.Context, conv models.Conversation, msg models.Message) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, user_id1, user_id2, last_message_id, updated_at`

// Find looks the pair up in either order.
func (r *ConversationRepo) Find(ctx context.Context, userA, userB int64) (models.Conversation, error) {
	user1, user2 := models.CanonicalPair(userA, userB)

	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM chat_conversations WHERE user_id1=$1 AND user_id2=$2`, user1, user2)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// FindOrCreate returns the pair's conversation, creating it when absent.
// A concurrent creator that wins the unique constraint turns our insert into a lookup.
func (r *ConversationRepo) FindOrCreate(ctx context.Context, userA, userB int64) (models.Conversation, error) {
	if userA == userB {
		return models.Conversation{}, ErrSelfConversation
	}

	conv, err := r.Find(ctx, userA, userB)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return models.Conversation{}, err
	}

	user1, user2 := models.CanonicalPair(userA, userB)
	err = r.db.QueryRowxContext(ctx, `INSERT INTO chat_conversations (user_id1, user_id2, updated_at) VALUES ($1, $2, NOW()) RETURNING `+conversationColumns, user1, user2).
		StructScan(&conv)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return r.Find(ctx, userA, userB)
		}
		return models.Conversation{}, err
	}
	return conv, nil
}

// ListForUser returns the user's conversations, most recently updated first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]models.Conversation, error) {
	convs := []models.Conversation{}
	err := r.db.SelectContext(ctx, &convs, `SELECT `+conversationColumns+` FROM chat_conversations
        WHERE user_id1=$1 OR user_id2=$1
        ORDER BY updated_at DESC, id DESC`, userID)
	return convs, err
}

// RecordNewMessage points the conversation at msg. Older messages never replace newer ones.
func (r *ConversationRepo) RecordNewMessage(ctx context.Context, conv models.Conversation, msg models.Message) error {
	_, err := r.db.ExecContext(ctx, `UPDATE chat_conversations SET last_message_id=$1, updated_at=$2
        WHERE id=$3 AND (last_message_id IS NULL OR last_message_id < $1)`, msg.ID, msg.CreatedAt, conv.ID)
	return err
}
