package models

// TypingStatus is pushed to a receiver while the actor is composing.
type TypingStatus struct {
	UserID   int64 `json:"userId"`
	IsTyping bool  `json:"isTyping"`
}

// ReadStatus is pushed to a message's sender once it was read.
type ReadStatus struct {
	MessageID int64 `json:"messageId"`
	IsRead    bool  `json:"isRead"`
}

// Frame is the envelope written to a live connection.
type Frame struct {
	Destination string      `json:"destination"`
	Payload     interface{} `json:"payload"`
}

// ClientFrame is an inbound message sent by a connected client.
type ClientFrame struct {
	Type        string `json:"type"`
	ReceiverID  int64  `json:"receiverId,omitempty"`
	OtherUserID int64  `json:"otherUserId,omitempty"`
	IsTyping    bool   `json:"isTyping,omitempty"`
}
