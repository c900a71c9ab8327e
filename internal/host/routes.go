package host

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The hub is LAN-only and token-gated by the auth middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRoutes wires the host event stream to the router.
func RegisterRoutes(router chi.Router, hub *Hub) {
	router.Get("/v1/events/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the handshake error.
			return
		}
		hub.Register(conn)
	})
}
