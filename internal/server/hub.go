// Package server broadcasts committed emissions to WebSocket clients,
// grounded on the gorilla/websocket client-registry pattern.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	clientSendBuffer = 32
	writeTimeout     = 10 * time.Second
	pingInterval     = 20 * time.Second
	readLimit        = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// CaptionMessage is the JSON shape pushed to every connected client.
type CaptionMessage struct {
	EmissionMs int64  `json:"emission_ms"`
	StartMs    *int64 `json:"start_ms,omitempty"`
	EndMs      *int64 `json:"end_ms,omitempty"`
	Text       string `json:"text"`
}

type client struct {
	conn *websocket.Conn
	send chan CaptionMessage
}

// Hub accepts WebSocket connections on its Handler and broadcasts every
// caption pushed via Broadcast to all currently connected clients. A client
// whose send buffer is full has its oldest queued message dropped rather
// than blocking the broadcaster, so one slow consumer cannot stall delivery
// to the rest.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{clients: make(map[*client]struct{}), log: log}
}

// Handler upgrades the request to a WebSocket and registers the connection
// for broadcasts until it disconnects. The protocol is receive-only: the
// hub never reads application messages from the client.
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("failed to upgrade websocket connection", slog.String("err", err.Error()))
		return
	}

	c := &client{conn: conn, send: make(chan CaptionMessage, clientSendBuffer)}
	h.register(c)
	defer h.unregister(c)

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop only exists to detect disconnects and respond to pings; the
// protocol defines no client-to-server messages.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(readLimit)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				h.log.Error("failed to marshal caption message", slog.String("err", err.Error()))
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast pushes msg to every connected client, dropping the oldest
// queued message for a client whose buffer is already full.
func (h *Hub) Broadcast(msg CaptionMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- msg:
			default:
			}
		}
	}
}
