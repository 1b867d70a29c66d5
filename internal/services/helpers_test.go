package services

import (
	"context"
	"strconv"
	"sync"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories/memory"
)

type pushed struct {
	kind    string
	target  int64
	payload interface{}
}

type recordingDispatcher struct {
	mu     sync.Mutex
	pushes []pushed
}

func (d *recordingDispatcher) record(kind string, target int64, payload interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pushes = append(d.pushes, pushed{kind: kind, target: target, payload: payload})
}

func (d *recordingDispatcher) PushMessage(_ context.Context, receiverID int64, msg models.Message) {
	d.record("message", receiverID, msg)
}

func (d *recordingDispatcher) PushChatListUpdate(_ context.Context, userID int64, entry models.ChatListEntry) {
	d.record("chat-list", userID, entry)
}

func (d *recordingDispatcher) PushTyping(_ context.Context, receiverID int64, status models.TypingStatus) {
	d.record("typing", receiverID, status)
}

func (d *recordingDispatcher) PushReadReceipt(_ context.Context, senderID int64, status models.ReadStatus) {
	d.record("read-status", senderID, status)
}

func (d *recordingDispatcher) DeliverSend(ctx context.Context, msg models.Message, senderEntry, receiverEntry models.ChatListEntry) {
	d.PushMessage(ctx, msg.ReceiverID, msg)
	d.PushChatListUpdate(ctx, msg.SenderID, senderEntry)
	d.PushChatListUpdate(ctx, msg.ReceiverID, receiverEntry)
}

func (d *recordingDispatcher) ofKind(kind string) []pushed {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []pushed
	for _, p := range d.pushes {
		if p.kind == kind {
			out = append(out, p)
		}
	}
	return out
}

type recordingEvents struct {
	mu   sync.Mutex
	sent []int64
	read [][]int64
}

func (e *recordingEvents) MessageSent(_ context.Context, msg models.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, msg.ID)
}

func (e *recordingEvents) MessagesRead(_ context.Context, _, _ int64, ids []int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.read = append(e.read, ids)
}

type fixture struct {
	store      *memory.Store
	log        *MessageLog
	assembler  *ChatListAssembler
	service    *ChatService
	dispatcher *recordingDispatcher
	events     *recordingEvents
}

func newFixture(userIDs ...int64) *fixture {
	store := memory.NewStore()
	for _, id := range userIDs {
		store.AddUser(models.UserProfile{ID: id, Nickname: nickname(id)})
	}
	users := store.Users()
	log := NewMessageLog(store.Messages(), users)
	assembler := NewChatListAssembler(store.Conversations(), log, users)
	dispatcher := &recordingDispatcher{}
	events := &recordingEvents{}

	return &fixture{
		store:      store,
		log:        log,
		assembler:  assembler,
		service:    NewChatService(log, store.Conversations(), assembler, users, dispatcher, events),
		dispatcher: dispatcher,
		events:     events,
	}
}

func nickname(id int64) string {
	return "user" + strconv.FormatInt(id, 10)
}
