package telemetry

import (
	"context"
	"time"

	"messaging-service/internal/logger"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

const (
	RoutingMessageSent  = "chat.message.sent"
	RoutingMessagesRead = "chat.messages.read"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error
	Close() error
}

// ChatEvents emits domain events for downstream consumers (notifications, analytics).
type ChatEvents struct {
	publisher   Publisher
	service     string
	environment string
}

type EventEnvelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	RequestID     string `json:"request_id"`
	Payload       any    `json:"payload"`
}

type MessageSentPayload struct {
	MessageID  int64     `json:"message_id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type MessagesReadPayload struct {
	ReaderID   int64   `json:"reader_id"`
	SenderID   int64   `json:"sender_id"`
	MessageIDs []int64 `json:"message_ids"`
}

func NewChatEvents(publisher Publisher, service, environment string) *ChatEvents {
	return &ChatEvents{
		publisher:   publisher,
		service:     service,
		environment: environment,
	}
}

// MessageSent announces a persisted message. Content is not included.
func (e *ChatEvents) MessageSent(ctx context.Context, msg models.Message) {
	e.emit(ctx, RoutingMessageSent, "message_sent", MessageSentPayload{
		MessageID:  msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		CreatedAt:  msg.CreatedAt,
	})
}

// MessagesRead announces that readerID read messageIDs sent by senderID.
func (e *ChatEvents) MessagesRead(ctx context.Context, readerID, senderID int64, messageIDs []int64) {
	e.emit(ctx, RoutingMessagesRead, "messages_read", MessagesReadPayload{
		ReaderID:   readerID,
		SenderID:   senderID,
		MessageIDs: messageIDs,
	})
}

func (e *ChatEvents) emit(ctx context.Context, routingKey, eventType string, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	requestID := observability.RequestIDFromContext(ctx)
	envelope := EventEnvelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, routingKey, envelope, observability.BuildHeaders(requestID, "")); err != nil {
		observability.IncAMQPPublishError()
		logger.Warn("chat event publish failed routing_key=%s: %v", routingKey, err)
	}
}
