package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"messaging-service/internal/logger"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// ChatActions are the operations a connected client may trigger.
type ChatActions interface {
	Typing(ctx context.Context, actorID, receiverID int64, isTyping bool) error
	MarkAsRead(ctx context.Context, userID, otherUserID int64) ([]int64, error)
}

// ConnInfo describes an authenticated connection for logs and lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      int64
	Email       string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// Client is one live connection. Only writePump writes to conn.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	info    ConnInfo
	actions ChatActions
}

func newClient(hub *Hub, conn *websocket.Conn, info ConnInfo, actions ChatActions, buffer int) *Client {
	if buffer <= 0 {
		buffer = 1
	}
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, buffer),
		info:    info,
		actions: actions,
	}
}

func (c *Client) readPump(ctx context.Context) {
	var closeReason string
	defer func() {
		c.hub.Unregister(c)
		observability.DecWSActive()
		publishWSEvent(ctx, c.info, "ws_disconnect", closeReason)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishWSEvent(ctx, c.info, "ws_error", closeReason)
			}
			return
		}
		c.handleFrame(ctx, raw)
	}
}

func (c *Client) handleFrame(ctx context.Context, raw []byte) {
	var frame models.ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.replyError("invalid_json")
		return
	}

	switch frame.Type {
	case "typing":
		if err := c.actions.Typing(ctx, c.info.UserID, frame.ReceiverID, frame.IsTyping); err != nil {
			logger.Debug("typing frame rejected user_id=%d: %v", c.info.UserID, err)
			c.replyError("invalid_typing")
		}
	case "mark_read":
		if _, err := c.actions.MarkAsRead(ctx, c.info.UserID, frame.OtherUserID); err != nil {
			logger.Warn("mark_read frame failed user_id=%d other_user_id=%d: %v", c.info.UserID, frame.OtherUserID, err)
			c.replyError("mark_read_failed")
		}
	default:
		c.replyError("unsupported_type")
	}
}

func (c *Client) replyError(code string) {
	data, err := json.Marshal(models.Frame{
		Destination: Destination(c.info.UserID, QueueErrors),
		Payload:     map[string]string{"error": code},
	})
	if err != nil {
		return
	}
	if err := c.hub.deliverToClient(c, data); err != nil {
		logger.Debug("error reply dropped user_id=%d: %v", c.info.UserID, err)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("websocket write error conn_id=%s: %v", c.info.ConnID, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
