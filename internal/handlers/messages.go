package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/models"
)

type MessageLog interface {
	ListConversation(ctx context.Context, userA, userB int64) ([]models.Message, error)
	UnreadCount(ctx context.Context, receiverID, senderID int64) (int, error)
}

// MessageHandler serves raw message history and counters.
type MessageHandler struct {
	log MessageLog
}

func NewMessageHandler(log MessageLog) *MessageHandler {
	return &MessageHandler{log: log}
}

// ListMessages returns the history between userId1 and userId2, oldest first.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	userA, err := queryInt64(c, "userId1")
	if err != nil {
		respondError(c, err)
		return
	}
	userB, err := queryInt64(c, "userId2")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := checkCaller(c, userA, userB); err != nil {
		respondError(c, err)
		return
	}

	msgs, err := h.log.ListConversation(c.Request.Context(), userA, userB)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "messages retrieved", msgs)
}

// UnreadCount reports how many messages otherUserId sent to userId are unread.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userID, err := actingUser(c, "userId")
	if err != nil {
		respondError(c, err)
		return
	}
	otherUserID, err := queryInt64(c, "otherUserId")
	if err != nil {
		respondError(c, err)
		return
	}

	count, err := h.log.UnreadCount(c.Request.Context(), userID, otherUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "unread count retrieved", count)
}
