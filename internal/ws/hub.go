package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNoLiveConnection = errors.New("user has no live connection")
	ErrSendBufferFull   = errors.New("connection send buffer full")
)

// Router hands an encoded frame to whatever can reach userID's connections.
type Router interface {
	Route(ctx context.Context, userID int64, payload []byte) error
}

// Hub tracks the live connections of each user on this instance.
type Hub struct {
	clients  map[int64]map[*Client]struct{}
	mu       sync.RWMutex
	presence func(userID int64, online bool)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

// SetPresenceHook installs fn, called outside the lock when a user gains their
// first connection here (online) or loses their last one.
func (h *Hub) SetPresenceHook(fn func(userID int64, online bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.presence = fn
}

// Register adds a client under its user id.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	userID := c.info.UserID
	first := false
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[*Client]struct{})
		first = true
	}
	h.clients[userID][c] = struct{}{}
	presence := h.presence
	h.mu.Unlock()

	if first && presence != nil {
		presence(userID, true)
	}
}

// Unregister removes the client and closes its send channel. It reports
// whether the client was registered.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	userID := c.info.UserID
	conns, ok := h.clients[userID]
	if !ok {
		h.mu.Unlock()
		return false
	}
	if _, exists := conns[c]; !exists {
		h.mu.Unlock()
		return false
	}
	delete(conns, c)
	close(c.send)
	last := len(conns) == 0
	if last {
		delete(h.clients, userID)
	}
	presence := h.presence
	h.mu.Unlock()

	if last && presence != nil {
		presence(userID, false)
	}
	return true
}

// Deliver queues payload on every connection of userID without blocking.
// A full buffer fails that connection's copy only.
func (h *Hub) Deliver(userID int64, payload []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := h.clients[userID]
	if len(conns) == 0 {
		return ErrNoLiveConnection
	}

	failed := 0
	for c := range conns {
		select {
		case c.send <- payload:
		default:
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d connections", ErrSendBufferFull, failed, len(conns))
	}
	return nil
}

func (h *Hub) deliverToClient(c *Client, payload []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c.info.UserID][c]; !ok {
		return ErrNoLiveConnection
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Route delivers to local connections.
func (h *Hub) Route(_ context.Context, userID int64, payload []byte) error {
	return h.Deliver(userID, payload)
}

// ConnectionCount reports how many live connections userID has here.
func (h *Hub) ConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
