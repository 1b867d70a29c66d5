package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"messaging-service/internal/apperrors"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// MessageLog is the append-only record of direct messages.
type MessageLog struct {
	messages repositories.MessageRepository
	users    repositories.UserRepository
}

func NewMessageLog(messages repositories.MessageRepository, users repositories.UserRepository) *MessageLog {
	return &MessageLog{messages: messages, users: users}
}

// Append validates and stores a message. createdAt is assigned by storage.
func (l *MessageLog) Append(ctx context.Context, senderID, receiverID int64, content string) (models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return models.Message{}, apperrors.Validation("content must not be blank", nil)
	}
	if senderID == receiverID {
		return models.Message{}, apperrors.Validation("cannot send a message to yourself", nil)
	}
	for _, id := range []int64{senderID, receiverID} {
		if _, err := l.users.GetUser(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return models.Message{}, apperrors.Validation(fmt.Sprintf("unknown user %d", id), err)
			}
			return models.Message{}, apperrors.Internal("failed to resolve user", err)
		}
	}

	msg, err := l.messages.CreateMessage(ctx, senderID, receiverID, content)
	if err != nil {
		return models.Message{}, apperrors.Internal("failed to store message", err)
	}
	return msg, nil
}

// ListConversation returns the pair's history oldest first, in either call direction.
func (l *MessageLog) ListConversation(ctx context.Context, userA, userB int64) ([]models.Message, error) {
	if err := requireUsers(ctx, l.users, userA, userB); err != nil {
		return nil, err
	}

	msgs, err := l.messages.ListConversation(ctx, userA, userB)
	if err != nil {
		return nil, apperrors.Internal("failed to load messages", err)
	}
	return msgs, nil
}

// LastMessage reports the newest message of the pair; ok is false for an empty history.
func (l *MessageLog) LastMessage(ctx context.Context, userA, userB int64) (models.Message, bool, error) {
	msg, ok, err := l.messages.LastMessage(ctx, userA, userB)
	if err != nil {
		return models.Message{}, false, apperrors.Internal("failed to load last message", err)
	}
	return msg, ok, nil
}

// UnreadCount is CountUnread for callers that have not resolved either user.
func (l *MessageLog) UnreadCount(ctx context.Context, receiverID, senderID int64) (int, error) {
	if err := requireUsers(ctx, l.users, receiverID, senderID); err != nil {
		return 0, err
	}
	return l.CountUnread(ctx, receiverID, senderID)
}

func (l *MessageLog) CountUnread(ctx context.Context, receiverID, senderID int64) (int, error) {
	count, err := l.messages.CountUnread(ctx, receiverID, senderID)
	if err != nil {
		return 0, apperrors.Internal("failed to count unread messages", err)
	}
	return count, nil
}

// MarkRead flags every unread message from senderID to receiverID and returns
// the ids it changed. Calling it again is a no-op returning no ids.
func (l *MessageLog) MarkRead(ctx context.Context, receiverID, senderID int64) ([]int64, error) {
	ids, err := l.messages.MarkRead(ctx, receiverID, senderID)
	if err != nil {
		return nil, apperrors.Internal("failed to mark messages read", err)
	}
	return ids, nil
}

func requireUsers(ctx context.Context, users repositories.UserRepository, ids ...int64) error {
	for _, id := range ids {
		if _, err := lookupUser(ctx, users, id); err != nil {
			return err
		}
	}
	return nil
}

func lookupUser(ctx context.Context, users repositories.UserRepository, id int64) (models.UserProfile, error) {
	user, err := users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.UserProfile{}, apperrors.NotFound("user", err)
		}
		return models.UserProfile{}, apperrors.Internal("failed to resolve user", err)
	}
	return user, nil
}
