package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/models"
)

// ChatServiceMock stands in for services.ChatService in handler and websocket tests.
type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) ListChats(ctx context.Context, userID int64) ([]models.ChatListEntry, error) {
	args := m.Called(ctx, userID)
	var entries []models.ChatListEntry
	if val := args.Get(0); val != nil {
		entries = val.([]models.ChatListEntry)
	}
	return entries, args.Error(1)
}

func (m *ChatServiceMock) ChatDetail(ctx context.Context, userID, otherUserID int64) (models.ChatDetail, error) {
	args := m.Called(ctx, userID, otherUserID)
	var detail models.ChatDetail
	if val := args.Get(0); val != nil {
		detail = val.(models.ChatDetail)
	}
	return detail, args.Error(1)
}

func (m *ChatServiceMock) SendMessage(ctx context.Context, senderID, receiverID int64, content string) (models.Message, error) {
	args := m.Called(ctx, senderID, receiverID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ChatServiceMock) MarkAsRead(ctx context.Context, userID, otherUserID int64) ([]int64, error) {
	args := m.Called(ctx, userID, otherUserID)
	var ids []int64
	if val := args.Get(0); val != nil {
		ids = val.([]int64)
	}
	return ids, args.Error(1)
}

func (m *ChatServiceMock) Typing(ctx context.Context, actorID, receiverID int64, isTyping bool) error {
	args := m.Called(ctx, actorID, receiverID, isTyping)
	return args.Error(0)
}

type MessageLogMock struct {
	mock.Mock
}

func (m *MessageLogMock) ListConversation(ctx context.Context, userA, userB int64) ([]models.Message, error) {
	args := m.Called(ctx, userA, userB)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageLogMock) UnreadCount(ctx context.Context, receiverID, senderID int64) (int, error) {
	args := m.Called(ctx, receiverID, senderID)
	return args.Int(0), args.Error(1)
}
