package models

import "time"

// Conversation is the single row kept per unordered user pair.
// User1ID is always the lower id.
type Conversation struct {
	ID            int64     `db:"id" json:"id"`
	User1ID       int64     `db:"user_id1" json:"userId1"`
	User2ID       int64     `db:"user_id2" json:"userId2"`
	LastMessageID *int64    `db:"last_message_id" json:"lastMessageId,omitempty"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// PartnerOf returns the member of the pair that is not userID.
func (c Conversation) PartnerOf(userID int64) int64 {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// HasMember reports whether userID is one side of the conversation.
func (c Conversation) HasMember(userID int64) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// CanonicalPair orders two user ids lower-first.
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// ChatListEntry is the per-partner inbox summary; it is never persisted.
type ChatListEntry struct {
	ConversationID int64       `json:"id"`
	User           UserProfile `json:"user"`
	LastMessage    *Message    `json:"lastMessage"`
	UnreadCount    int         `json:"unreadCount"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// ChatDetail is the full history view between a user and a partner.
type ChatDetail struct {
	ConversationID int64       `json:"conversationId"`
	User           UserProfile `json:"user"`
	Messages       []Message   `json:"messages"`
}
