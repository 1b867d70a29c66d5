package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"messaging-service/internal/logger"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

const (
	QueueMessages   = "messages"
	QueueChatList   = "chat-list"
	QueueTyping     = "typing"
	QueueReadStatus = "read-status"
	QueueErrors     = "errors"
)

// Destination is the per-user address a frame is published to.
func Destination(userID int64, queue string) string {
	return fmt.Sprintf("/user/%d/queue/%s", userID, queue)
}

// Dispatcher pushes frames to users. Every push is attempted once and its
// failure is logged and counted, never returned.
type Dispatcher struct {
	router Router
}

func NewDispatcher(router Router) *Dispatcher {
	return &Dispatcher{router: router}
}

func (d *Dispatcher) PushMessage(ctx context.Context, receiverID int64, msg models.Message) {
	d.push(ctx, receiverID, QueueMessages, msg)
}

func (d *Dispatcher) PushChatListUpdate(ctx context.Context, userID int64, entry models.ChatListEntry) {
	d.push(ctx, userID, QueueChatList, entry)
}

func (d *Dispatcher) PushTyping(ctx context.Context, receiverID int64, status models.TypingStatus) {
	d.push(ctx, receiverID, QueueTyping, status)
}

func (d *Dispatcher) PushReadReceipt(ctx context.Context, senderID int64, status models.ReadStatus) {
	d.push(ctx, senderID, QueueReadStatus, status)
}

// DeliverSend sends the message to the receiver and the refreshed chat-list
// entries to both sides. The three pushes are independent.
func (d *Dispatcher) DeliverSend(ctx context.Context, msg models.Message, senderEntry, receiverEntry models.ChatListEntry) {
	d.PushMessage(ctx, msg.ReceiverID, msg)
	d.PushChatListUpdate(ctx, msg.SenderID, senderEntry)
	d.PushChatListUpdate(ctx, msg.ReceiverID, receiverEntry)
}

func (d *Dispatcher) push(ctx context.Context, userID int64, queue string, payload interface{}) {
	data, err := json.Marshal(models.Frame{Destination: Destination(userID, queue), Payload: payload})
	if err != nil {
		observability.IncDispatch(queue, "error")
		logger.Error("dispatch encode failed user_id=%d queue=%s: %v", userID, queue, err)
		return
	}

	err = d.router.Route(ctx, userID, data)
	switch {
	case err == nil:
		observability.IncDispatch(queue, "delivered")
	case errors.Is(err, ErrNoLiveConnection):
		observability.IncDispatch(queue, "offline")
	default:
		observability.IncDispatch(queue, "failed")
		logger.Warn("dispatch failed user_id=%d queue=%s: %v", userID, queue, err)
	}
}
