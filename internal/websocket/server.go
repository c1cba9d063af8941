// Package websocket implements the optional live-progress broadcaster
// behind cmd/etl-legs's --watch flag: a hub that fans out ETL
// task-completion events to every connected client, adapted from the
// teacher's broadcast-hub pattern.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

// Event types broadcast over the hub.
const (
	EventTaskCompleted = "task_completed"
	EventTaskFailed    = "task_failed"
	EventRunFinished   = "run_finished"
)

// Event is a single progress update pushed to every connected client.
type Event struct {
	Type   string `json:"type"`
	ICAO   string `json:"icao,omitempty"`
	Month  string `json:"month,omitempty"`
	Error  string `json:"error,omitempty"`
	Todo   int    `json:"todo,omitempty"`
	Done   int    `json:"done,omitempty"`
}

// client is a single connected WebSocket subscriber.
type client struct {
	conn   *websocket.Conn
	send   chan *Event
	mu     sync.Mutex
	closed bool
}

// Hub fans out Events to every registered client. It has no notion of ETL
// semantics: Orchestrator code calls Broadcast and the hub takes care of
// slow/disconnected clients.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan *Event
	upgrader   websocket.Upgrader
	logger     *logger.Logger
	mu         sync.RWMutex
}

// NewHub builds a Hub. Call Run in its own goroutine before serving
// connections.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan *Event, 64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log.Named("websocket"),
	}
}

// Run processes register/unregister/broadcast events in an endless loop.
// The hub has no shutdown signal of its own; cmd/etl-legs runs it for the
// process lifetime when --watch is set.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.mu.Lock()
				if !c.closed {
					c.closed = true
					close(c.send)
				}
				c.mu.Unlock()
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.RLock()
			var stale []*client
			for c := range h.clients {
				select {
				case c.send <- event:
				default:
					stale = append(stale, c)
				}
			}
			h.mu.RUnlock()

			if len(stale) > 0 {
				h.mu.Lock()
				for _, c := range stale {
					if _, ok := h.clients[c]; ok {
						delete(h.clients, c)
						c.mu.Lock()
						if !c.closed {
							c.closed = true
							close(c.send)
						}
						c.mu.Unlock()
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

// Broadcast pushes event to every connected client. A client whose send
// buffer is full is removed from the hub and its send channel closed.
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- &event
}

// ServeHTTP upgrades the request to a WebSocket connection and registers a
// new subscriber. Clients are read-only: anything they send is discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", logger.Error(err), logger.String("remote_addr", r.RemoteAddr))
		return
	}

	c := &client{conn: conn, send: make(chan *Event, 32)}
	h.register <- c

	go c.readPump(h)
	go c.writePump(h)
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump(h *Hub) {
	defer c.conn.Close()
	for event := range c.send {
		data, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("failed to marshal event", logger.Error(err))
			continue
		}
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		if _, err := w.Write(data); err != nil {
			w.Close()
			return
		}
		if err := w.Close(); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
