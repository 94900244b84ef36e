package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub spins up a WebSocket endpoint that registers every incoming
// connection with the hub under the given user ID, and returns the
// client-side connection.
func dialHub(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := hub.Register(userID, conn)
		defer hub.Unregister(userID, client)
		// Hold the connection open until the peer goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	assert.False(t, hub.Connected("u1"))

	client := hub.Register("u1", nil)
	other := hub.Register("u1", nil)
	assert.True(t, hub.Connected("u1"))

	hub.Unregister("u1", client)
	assert.True(t, hub.Connected("u1"), "second tab keeps the user connected")

	hub.Unregister("u1", other)
	assert.False(t, hub.Connected("u1"))
}

func TestHubBroadcastSkipsUnknownUsers(t *testing.T) {
	hub := NewHub()
	// No connections at all: must be a no-op, not a panic.
	hub.BroadcastToUsers([]string{"ghost"}, Event{Type: "message"})
	hub.BroadcastAll(Event{Type: "message"})
}

func TestHubConcurrentBroadcastsToOneConnection(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "u1")

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			hub.BroadcastToUsers([]string{"u1"}, Event{
				Type:    "message",
				Payload: map[string]any{"conversation_id": "c1"},
			})
		}()
	}

	// Every write must arrive intact even though the broadcasts raced.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < writers; i++ {
		var ev Event
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, "message", ev.Type)
	}
	wg.Wait()
	assert.True(t, hub.Connected("u1"))
}
