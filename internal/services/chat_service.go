package services

import (
	"context"
	"errors"

	"messaging-service/internal/apperrors"
	"messaging-service/internal/logger"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// Dispatcher pushes events to live connections. Implementations never fail the caller.
type Dispatcher interface {
	PushMessage(ctx context.Context, receiverID int64, msg models.Message)
	PushChatListUpdate(ctx context.Context, userID int64, entry models.ChatListEntry)
	PushTyping(ctx context.Context, receiverID int64, status models.TypingStatus)
	PushReadReceipt(ctx context.Context, senderID int64, status models.ReadStatus)
	DeliverSend(ctx context.Context, msg models.Message, senderEntry, receiverEntry models.ChatListEntry)
}

// EventEmitter announces committed chat activity to other services.
type EventEmitter interface {
	MessageSent(ctx context.Context, msg models.Message)
	MessagesRead(ctx context.Context, readerID, senderID int64, messageIDs []int64)
}

// ChatService orchestrates sends, reads and inbox views.
type ChatService struct {
	log           *MessageLog
	conversations repositories.ConversationRepository
	assembler     *ChatListAssembler
	users         repositories.UserRepository
	dispatcher    Dispatcher
	events        EventEmitter
}

func NewChatService(
	log *MessageLog,
	conversations repositories.ConversationRepository,
	assembler *ChatListAssembler,
	users repositories.UserRepository,
	dispatcher Dispatcher,
	events EventEmitter,
) *ChatService {
	return &ChatService{
		log:           log,
		conversations: conversations,
		assembler:     assembler,
		users:         users,
		dispatcher:    dispatcher,
		events:        events,
	}
}

// SendMessage persists the message, advances the pair's conversation and then
// notifies both participants. Only the persistence steps can fail the call.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID int64, content string) (models.Message, error) {
	msg, err := s.log.Append(ctx, senderID, receiverID, content)
	if err != nil {
		return models.Message{}, err
	}

	conv, err := s.conversations.FindOrCreate(ctx, senderID, receiverID)
	if err != nil {
		return models.Message{}, apperrors.Internal("failed to open conversation", err)
	}
	if err := s.conversations.RecordNewMessage(ctx, conv, msg); err != nil {
		return models.Message{}, apperrors.Internal("failed to update conversation", err)
	}

	if s.events != nil {
		s.events.MessageSent(ctx, msg)
	}

	senderEntry, senderErr := s.assembler.Summarize(ctx, senderID, receiverID)
	receiverEntry, receiverErr := s.assembler.Summarize(ctx, receiverID, senderID)
	if err := errors.Join(senderErr, receiverErr); err != nil {
		logger.Warn("chat list refresh skipped for message %d: %v", msg.ID, err)
		s.dispatcher.PushMessage(ctx, receiverID, msg)
		return msg, nil
	}

	s.dispatcher.DeliverSend(ctx, msg, senderEntry, receiverEntry)
	return msg, nil
}

// ChatDetail returns the partner profile and full history, creating the
// conversation row on first view.
func (s *ChatService) ChatDetail(ctx context.Context, userID, otherUserID int64) (models.ChatDetail, error) {
	if userID == otherUserID {
		return models.ChatDetail{}, apperrors.Validation("cannot open a conversation with yourself", nil)
	}
	if _, err := lookupUser(ctx, s.users, userID); err != nil {
		return models.ChatDetail{}, err
	}
	other, err := lookupUser(ctx, s.users, otherUserID)
	if err != nil {
		return models.ChatDetail{}, err
	}

	conv, err := s.conversations.FindOrCreate(ctx, userID, otherUserID)
	if err != nil {
		return models.ChatDetail{}, apperrors.Internal("failed to open conversation", err)
	}

	msgs, err := s.log.ListConversation(ctx, userID, otherUserID)
	if err != nil {
		return models.ChatDetail{}, err
	}

	return models.ChatDetail{
		ConversationID: conv.ID,
		User:           other,
		Messages:       msgs,
	}, nil
}

func (s *ChatService) ListChats(ctx context.Context, userID int64) ([]models.ChatListEntry, error) {
	return s.assembler.ListForUser(ctx, userID)
}

// MarkAsRead flags everything otherUserID sent to userID as read, sends a read
// receipt per message to otherUserID and refreshes userID's inbox entry.
func (s *ChatService) MarkAsRead(ctx context.Context, userID, otherUserID int64) ([]int64, error) {
	if err := requireUsers(ctx, s.users, userID, otherUserID); err != nil {
		return nil, err
	}

	ids, err := s.log.MarkRead(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}

	for _, id := range ids {
		s.dispatcher.PushReadReceipt(ctx, otherUserID, models.ReadStatus{MessageID: id, IsRead: true})
	}
	if s.events != nil {
		s.events.MessagesRead(ctx, userID, otherUserID, ids)
	}

	entry, err := s.assembler.Summarize(ctx, userID, otherUserID)
	if err != nil {
		logger.Warn("chat list refresh skipped after mark-read user_id=%d: %v", userID, err)
		return ids, nil
	}
	s.dispatcher.PushChatListUpdate(ctx, userID, entry)
	return ids, nil
}

// Typing relays a composing indicator from actorID to receiverID.
func (s *ChatService) Typing(ctx context.Context, actorID, receiverID int64, isTyping bool) error {
	if receiverID <= 0 || receiverID == actorID {
		return apperrors.Validation("invalid typing receiver", nil)
	}
	s.dispatcher.PushTyping(ctx, receiverID, models.TypingStatus{UserID: actorID, IsTyping: isTyping})
	return nil
}
