package services

import (
	"context"
	"errors"

	"messaging-service/internal/apperrors"
	"messaging-service/internal/logger"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// ChatListAssembler joins the conversation directory, the message log and the
// user directory into inbox entries. Each entry is read without a transaction,
// so the unread count may trail a concurrent send.
type ChatListAssembler struct {
	conversations repositories.ConversationRepository
	log           *MessageLog
	users         repositories.UserRepository
}

func NewChatListAssembler(conversations repositories.ConversationRepository, log *MessageLog, users repositories.UserRepository) *ChatListAssembler {
	return &ChatListAssembler{conversations: conversations, log: log, users: users}
}

// Summarize builds the entry viewerID sees for partnerID. The pair's
// conversation row is created if this is its first appearance.
func (a *ChatListAssembler) Summarize(ctx context.Context, viewerID, partnerID int64) (models.ChatListEntry, error) {
	if _, err := lookupUser(ctx, a.users, viewerID); err != nil {
		return models.ChatListEntry{}, err
	}
	partner, err := lookupUser(ctx, a.users, partnerID)
	if err != nil {
		return models.ChatListEntry{}, err
	}

	conv, err := a.conversations.FindOrCreate(ctx, viewerID, partnerID)
	switch {
	case errors.Is(err, repositories.ErrSelfConversation):
		return models.ChatListEntry{}, apperrors.Validation("cannot open a conversation with yourself", err)
	case err != nil:
		return models.ChatListEntry{}, apperrors.Internal("failed to open conversation", err)
	}

	return a.summarize(ctx, viewerID, partner, conv)
}

// ListForUser returns one entry per conversation, most recently updated first.
func (a *ChatListAssembler) ListForUser(ctx context.Context, viewerID int64) ([]models.ChatListEntry, error) {
	if _, err := lookupUser(ctx, a.users, viewerID); err != nil {
		return nil, err
	}

	convs, err := a.conversations.ListForUser(ctx, viewerID)
	if err != nil {
		return nil, apperrors.Internal("failed to load conversations", err)
	}

	entries := make([]models.ChatListEntry, 0, len(convs))
	for _, conv := range convs {
		partnerID := conv.PartnerOf(viewerID)
		partner, err := lookupUser(ctx, a.users, partnerID)
		if err != nil {
			if apperrors.Is(err, apperrors.CodeNotFound) {
				logger.Warn("chat list skipping conversation %d: partner %d not found", conv.ID, partnerID)
				continue
			}
			return nil, err
		}

		entry, err := a.summarize(ctx, viewerID, partner, conv)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (a *ChatListAssembler) summarize(ctx context.Context, viewerID int64, partner models.UserProfile, conv models.Conversation) (models.ChatListEntry, error) {
	entry := models.ChatListEntry{
		ConversationID: conv.ID,
		User:           partner,
		UpdatedAt:      conv.UpdatedAt,
	}

	last, ok, err := a.log.LastMessage(ctx, viewerID, partner.ID)
	if err != nil {
		return models.ChatListEntry{}, err
	}
	if ok {
		entry.LastMessage = &last
		entry.UpdatedAt = last.CreatedAt
	}

	unread, err := a.log.CountUnread(ctx, viewerID, partner.ID)
	if err != nil {
		return models.ChatListEntry{}, err
	}
	entry.UnreadCount = unread
	return entry, nil
}
