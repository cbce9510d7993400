package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mindfultube/mindfultube/internal/agent"
	"github.com/mindfultube/mindfultube/internal/logging"
	"github.com/mindfultube/mindfultube/internal/metrics"
)

// Message type for orchestrator pushes
const MessageAgentInterface = "agent_interface"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// WebSocketMessage is the envelope written to clients
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// WebSocketHub fans messages out to connected page clients
type WebSocketHub struct {
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	log      *logging.Logger

	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.RWMutex
	clients map[*wsClient]bool
}

// NewWebSocketHub creates a hub. Call Run before serving clients.
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The page layer connects from the video site's origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:        logging.Component("websocket"),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[*wsClient]bool),
	}
}

// Run processes registrations and broadcasts until Stop
func (h *WebSocketHub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.metrics.ClientConnected()

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.metrics.ClientDisconnected()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client
					delete(h.clients, c)
					close(c.send)
					h.metrics.ClientDisconnected()
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends Run and disconnects every client
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Clients returns the number of connected clients
func (h *WebSocketHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a message for every client. Messages are dropped when
// the queue is full.
func (h *WebSocketHub) Broadcast(msg WebSocketMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Warn("Failed to encode %s message", msg.Type)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn("Broadcast queue full, dropping %s message", msg.Type)
	}
}

// UpdateAgentInterface pushes an orchestrator update to all clients
func (h *WebSocketHub) UpdateAgentInterface(ctx context.Context, update agent.InterfaceUpdate) error {
	h.Broadcast(WebSocketMessage{
		Type:      MessageAgentInterface,
		Data:      update,
		Timestamp: time.Now(),
	})
	return nil
}

// ServeHTTP upgrades the request and serves the client until it leaves
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("WebSocket upgrade failed")
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBufferSize)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client input and keeps the pong deadline fresh
func (h *WebSocketHub) readPump(c *wsClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WebSocketHub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
