package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

type pairKey struct {
	user1 int64
	user2 int64
}

// Store keeps messages, conversations and users in process memory. It enforces the
// same per-pair uniqueness as the SQL schema and is safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	now           func() time.Time
	lastCreatedAt time.Time
	nextMessageID int64
	nextConvID    int64
	messages      []models.Message
	conversations map[pairKey]models.Conversation
	users         map[int64]models.UserProfile
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{
		now:           time.Now,
		conversations: make(map[pairKey]models.Conversation),
		users:         make(map[int64]models.UserProfile),
	}
}

// AddUser seeds the user directory.
func (s *Store) AddUser(user models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// Messages returns the store as a MessageRepository.
func (s *Store) Messages() repositories.MessageRepository { return messageStore{s} }

// Conversations returns the store as a ConversationRepository.
func (s *Store) Conversations() repositories.ConversationRepository { return conversationStore{s} }

// Users returns the store as a UserRepository.
func (s *Store) Users() repositories.UserRepository { return userStore{s} }

// ConversationCount reports how many conversation rows exist.
func (s *Store) ConversationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// nextTimestamp must be called with mu held.
func (s *Store) nextTimestamp() time.Time {
	ts := s.now()
	if !ts.After(s.lastCreatedAt) {
		ts = s.lastCreatedAt.Add(time.Microsecond)
	}
	s.lastCreatedAt = ts
	return ts
}

type messageStore struct{ s *Store }

func (m messageStore) CreateMessage(_ context.Context, senderID, receiverID int64, content string) (models.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	m.s.nextMessageID++
	msg := models.Message{
		ID:         m.s.nextMessageID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  m.s.nextTimestamp(),
	}
	m.s.messages = append(m.s.messages, msg)
	return msg, nil
}

func (m messageStore) ListConversation(_ context.Context, userA, userB int64) ([]models.Message, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	msgs := []models.Message{}
	for _, msg := range m.s.messages {
		if msg.Involves(userA, userB) {
			msgs = append(msgs, msg)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

func (m messageStore) LastMessage(ctx context.Context, userA, userB int64) (models.Message, bool, error) {
	msgs, _ := m.ListConversation(ctx, userA, userB)
	if len(msgs) == 0 {
		return models.Message{}, false, nil
	}
	return msgs[len(msgs)-1], true, nil
}

func (m messageStore) CountUnread(_ context.Context, receiverID, senderID int64) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	count := 0
	for _, msg := range m.s.messages {
		if msg.ReceiverID == receiverID && msg.SenderID == senderID && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

func (m messageStore) MarkRead(_ context.Context, receiverID, senderID int64) ([]int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	ids := []int64{}
	for i := range m.s.messages {
		msg := &m.s.messages[i]
		if msg.ReceiverID == receiverID && msg.SenderID == senderID && !msg.IsRead {
			msg.IsRead = true
			ids = append(ids, msg.ID)
		}
	}
	return ids, nil
}

type conversationStore struct{ s *Store }

func (c conversationStore) Find(_ context.Context, userA, userB int64) (models.Conversation, error) {
	user1, user2 := models.CanonicalPair(userA, userB)

	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	conv, ok := c.s.conversations[pairKey{user1, user2}]
	if !ok {
		return models.Conversation{}, repositories.ErrConversationNotFound
	}
	return conv, nil
}

func (c conversationStore) FindOrCreate(_ context.Context, userA, userB int64) (models.Conversation, error) {
	if userA == userB {
		return models.Conversation{}, repositories.ErrSelfConversation
	}
	user1, user2 := models.CanonicalPair(userA, userB)
	key := pairKey{user1, user2}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if conv, ok := c.s.conversations[key]; ok {
		return conv, nil
	}
	c.s.nextConvID++
	conv := models.Conversation{
		ID:        c.s.nextConvID,
		User1ID:   user1,
		User2ID:   user2,
		UpdatedAt: c.s.now(),
	}
	c.s.conversations[key] = conv
	return conv, nil
}

func (c conversationStore) ListForUser(_ context.Context, userID int64) ([]models.Conversation, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	convs := []models.Conversation{}
	for _, conv := range c.s.conversations {
		if conv.HasMember(userID) {
			convs = append(convs, conv)
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		if convs[i].UpdatedAt.Equal(convs[j].UpdatedAt) {
			return convs[i].ID > convs[j].ID
		}
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

func (c conversationStore) RecordNewMessage(_ context.Context, conv models.Conversation, msg models.Message) error {
	key := pairKey{conv.User1ID, conv.User2ID}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	current, ok := c.s.conversations[key]
	if !ok || current.ID != conv.ID {
		return nil
	}
	if current.LastMessageID != nil && *current.LastMessageID >= msg.ID {
		return nil
	}
	id := msg.ID
	current.LastMessageID = &id
	current.UpdatedAt = msg.CreatedAt
	c.s.conversations[key] = current
	return nil
}

type userStore struct{ s *Store }

func (u userStore) GetUser(_ context.Context, userID int64) (models.UserProfile, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[userID]
	if !ok {
		return models.UserProfile{}, repositories.ErrUserNotFound
	}
	return user, nil
}

func (u userStore) GetUserByEmail(_ context.Context, email string) (models.UserProfile, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, user := range u.s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.UserProfile{}, repositories.ErrUserNotFound
}
