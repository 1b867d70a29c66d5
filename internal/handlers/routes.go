package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the chat and message endpoints on group.
func RegisterRoutes(group gin.IRoutes, chats *ChatHandler, messages *MessageHandler) {
	group.GET("/chats", chats.ListChats)
	group.GET("/chats/detail", chats.ChatDetail)
	group.POST("/chats/messages", chats.SendMessage)
	group.PUT("/chats/mark-read", chats.MarkRead)

	group.GET("/messages", messages.ListMessages)
	group.GET("/messages/unread-count", messages.UnreadCount)
}
