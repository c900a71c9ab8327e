package host

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := NewHub(nil)
	t.Cleanup(hub.Close)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Broadcast(EntityChange("media_player.naim_dev-1", "dev-1", map[string]any{"state": "PLAYING"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, "entity_change", event.Type)
	require.Equal(t, "media_player.naim_dev-1", event.EntityID)
	require.Equal(t, "dev-1", event.DeviceID)
	require.Equal(t, "PLAYING", event.Attributes["state"])
	require.NotEmpty(t, event.TS)
}

func TestHub_MultipleClients(t *testing.T) {
	hub := NewHub(nil)
	t.Cleanup(hub.Close)
	first := dialHub(t, hub)
	second := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 },
		time.Second, 10*time.Millisecond)

	hub.Broadcast(EntityChange("remote.naim_dev-1", "dev-1", nil))

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event Event
		require.NoError(t, conn.ReadJSON(&event))
		require.Equal(t, "remote.naim_dev-1", event.EntityID)
	}
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub := NewHub(nil)
	t.Cleanup(hub.Close)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)

	// Broadcasting with no clients must not panic or block.
	hub.Broadcast(EntityChange("media_player.naim_dev-1", "dev-1", nil))
}

func TestHub_CloseRejectsNewClients(t *testing.T) {
	hub := NewHub(nil)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Close()
	require.Zero(t, hub.ClientCount())

	// The server side closes the connection shortly after.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}
