package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"messaging-service/internal/apperrors"
	"messaging-service/internal/auth"
	"messaging-service/internal/logger"
	"messaging-service/internal/observability"
)

// Authenticator runs the connection handshake.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) *auth.Handshake
}

// ChatWebSocketHandler handles chat websocket connections.
type ChatWebSocketHandler struct {
	hub           *Hub
	authenticator Authenticator
	actions       ChatActions
	sendBuffer    int
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, authenticator Authenticator, actions ChatActions, sendBuffer int) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{
		hub:           hub,
		authenticator: authenticator,
		actions:       actions,
		sendBuffer:    sendBuffer,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the request and upgrades it. Rejected handshakes get
// 403 and are never upgraded.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	hs := h.authenticator.Authenticate(ctx, c.Request)
	span.SetAttributes(attribute.String("ws.handshake.state", hs.State.String()))
	if hs.State != auth.Authenticated {
		observability.IncHandshake("rejected", hs.Reason)
		span.SetStatus(codes.Error, hs.Reason)
		logger.Debug("websocket handshake rejected reason=%q: %v", hs.Reason, hs.Err)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   apperrors.CodeForbidden,
			"message": hs.Reason,
		})
		return
	}
	observability.IncHandshake("accepted", "")
	span.SetAttributes(attribute.Int64("user.id", hs.Principal.ID))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed user_id=%d: %v", hs.Principal.ID, err)
		return
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      hs.Principal.ID,
		Email:       hs.Principal.Email,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := newClient(h.hub, conn, info, h.actions, h.sendBuffer)
	h.hub.Register(client)
	logger.Debug("websocket connected conn_id=%s user_id=%d email=%s", info.ConnID, info.UserID, info.Email)

	// The request context ends when Handle returns; the connection outlives it.
	connCtx := observability.WithRequestID(context.Background(), requestID)
	observability.IncWSActive()
	publishWSEvent(connCtx, info, "ws_connect", "")

	go client.writePump()
	go client.readPump(connCtx)
}
