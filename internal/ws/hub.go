package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Event is the wire shape of every live update pushed to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Client wraps a WebSocket connection with a write mutex. gorilla/websocket
// allows only one concurrent writer per connection, and HTTP handlers
// broadcast from arbitrary goroutines, so every outbound write goes through
// Send.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

// Send writes the event to the connection, serializing against other
// writers on the same connection.
func (c *Client) Send(event Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(event)
}

func (c *Client) close() {
	c.conn.Close()
}

// Hub manages active WebSocket connections keyed by user ID and provides
// helper methods to broadcast events to one or more users. It is the
// push-on-change substitute for a reactive store: every mutation handler
// broadcasts to the affected users.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

// Register adds a connection for the given user and returns the client
// handle all writes to that connection must go through.
func (h *Hub) Register(userID string, conn *websocket.Conn) *Client {
	c := &Client{conn: conn}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	return c
}

// Unregister removes a client for the given user.
func (h *Hub) Unregister(userID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[userID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
}

// Connected reports whether the user has at least one open connection.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// BroadcastToUsers sends the event to all active connections of the
// provided user IDs. Failed connections are closed; their removal happens
// on the reader's exit path.
func (h *Hub) BroadcastToUsers(userIDs []string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, uid := range userIDs {
		clients, ok := h.clients[uid]
		if !ok {
			continue
		}
		for c := range clients {
			if err := c.Send(event); err != nil {
				c.close()
			}
		}
	}
}

// BroadcastAll sends the event to every connected user.
func (h *Hub) BroadcastAll(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for c := range clients {
			if err := c.Send(event); err != nil {
				c.close()
			}
		}
	}
}
