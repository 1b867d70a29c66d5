package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/apperrors"
	"messaging-service/internal/models"
)

// ChatService is the chat use-case surface the HTTP layer needs.
type ChatService interface {
	ListChats(ctx context.Context, userID int64) ([]models.ChatListEntry, error)
	ChatDetail(ctx context.Context, userID, otherUserID int64) (models.ChatDetail, error)
	SendMessage(ctx context.Context, senderID, receiverID int64, content string) (models.Message, error)
	MarkAsRead(ctx context.Context, userID, otherUserID int64) ([]int64, error)
}

// ChatHandler manages private chat endpoints.
type ChatHandler struct {
	service ChatService
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(service ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// ListChats returns the inbox of userId, most recent first.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID, err := actingUser(c, "userId")
	if err != nil {
		respondError(c, err)
		return
	}

	entries, err := h.service.ListChats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "chats retrieved", entries)
}

// ChatDetail returns the partner profile and full history, opening the
// conversation if it does not exist yet.
func (h *ChatHandler) ChatDetail(c *gin.Context) {
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

	detail, err := h.service.ChatDetail(c.Request.Context(), userID, otherUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "chat detail retrieved", detail)
}

// SendMessage stores a message from senderId and pushes it to the receiver.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	senderID, err := actingUser(c, "senderId")
	if err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		ReceiverID int64  `json:"receiverId" binding:"required"`
		Content    string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body", err))
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), senderID, req.ReceiverID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "message sent", msg)
}

// MarkRead marks everything otherUserId sent to userId as read.
func (h *ChatHandler) MarkRead(c *gin.Context) {
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

	ids, err := h.service.MarkAsRead(c.Request.Context(), userID, otherUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "messages marked as read", gin.H{"messageIds": ids})
}
