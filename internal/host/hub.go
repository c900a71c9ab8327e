// Package host pushes entity state changes to connected integration hosts
// over WebSocket. Hosts subscribe once and receive every entity_change event;
// a slow host is dropped rather than allowed to stall the broadcast path.
package host

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	clientSendBuffer = 32
	writeTimeout     = 10 * time.Second
	pingInterval     = 30 * time.Second
)

// Event is one message pushed to every connected host.
type Event struct {
	Type       string         `json:"type"`
	EntityID   string         `json:"entity_id,omitempty"`
	DeviceID   string         `json:"device_id,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	TS         string         `json:"ts"`
}

// EntityChange builds an entity_change event.
func EntityChange(entityID, deviceID string, attributes map[string]any) Event {
	return Event{
		Type:       "entity_change",
		EntityID:   entityID,
		DeviceID:   deviceID,
		Attributes: attributes,
		TS:         time.Now().UTC().Format(time.RFC3339),
	}
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans events out to all connected hosts.
type Hub struct {
	logger *log.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Register takes ownership of a connection and serves it until it closes.
func (h *Hub) Register(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan Event, clientSendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Printf("host: client connected (%d total)", count)

	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast delivers an event to every connected host. Never blocks; a client
// whose buffer is full is disconnected.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	var stale []*client
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range stale {
		close(c.send)
		h.logger.Printf("host: dropping slow client")
	}
}

// ClientCount reports the number of connected hosts.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every host and rejects new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// writePump owns all writes to the connection, including pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames so pings and close frames are processed.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
