package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/models"
)

type routed struct {
	userID int64
	frame  map[string]json.RawMessage
}

type fakeRouter struct {
	mu      sync.Mutex
	fail    map[int64]error
	deliver []routed
}

func (r *fakeRouter) Route(_ context.Context, userID int64, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[userID]; err != nil {
		return err
	}
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(payload, &frame); err != nil {
		return err
	}
	r.deliver = append(r.deliver, routed{userID: userID, frame: frame})
	return nil
}

func destinationOf(t *testing.T, r routed) string {
	var dest string
	require.NoError(t, json.Unmarshal(r.frame["destination"], &dest))
	return dest
}

func TestDestination(t *testing.T) {
	assert.Equal(t, "/user/42/queue/read-status", Destination(42, QueueReadStatus))
}

func TestDeliverSendAddressesBothParticipants(t *testing.T) {
	router := &fakeRouter{}
	d := NewDispatcher(router)
	msg := models.Message{ID: 1, SenderID: 1, ReceiverID: 2, Content: "hi"}

	d.DeliverSend(context.Background(), msg, models.ChatListEntry{ConversationID: 9}, models.ChatListEntry{ConversationID: 9, UnreadCount: 1})

	require.Len(t, router.deliver, 3)
	assert.Equal(t, "/user/2/queue/messages", destinationOf(t, router.deliver[0]))
	assert.Equal(t, "/user/1/queue/chat-list", destinationOf(t, router.deliver[1]))
	assert.Equal(t, "/user/2/queue/chat-list", destinationOf(t, router.deliver[2]))

	var payload models.Message
	require.NoError(t, json.Unmarshal(router.deliver[0].frame["payload"], &payload))
	assert.Equal(t, "hi", payload.Content)
}

func TestDeliverSendFailuresAreIsolated(t *testing.T) {
	router := &fakeRouter{fail: map[int64]error{2: ErrSendBufferFull}}
	d := NewDispatcher(router)
	msg := models.Message{ID: 1, SenderID: 1, ReceiverID: 2, Content: "hi"}

	assert.NotPanics(t, func() {
		d.DeliverSend(context.Background(), msg, models.ChatListEntry{}, models.ChatListEntry{})
	})

	require.Len(t, router.deliver, 1)
	assert.Equal(t, "/user/1/queue/chat-list", destinationOf(t, router.deliver[0]))
}

func TestPushToOfflineUserIsSilent(t *testing.T) {
	d := NewDispatcher(NewHub())

	assert.NotPanics(t, func() {
		d.PushTyping(context.Background(), 5, models.TypingStatus{UserID: 1, IsTyping: true})
		d.PushReadReceipt(context.Background(), 5, models.ReadStatus{MessageID: 3, IsRead: true})
	})
}
