package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/madhubani/internal/menu"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler maintains the WebSocket clients. Outbound it broadcasts
// the board snapshot at a fixed rate and forwards selection and hover
// pulses from the dwell engine; inbound it accepts the same queued actions
// the REST endpoints expose.
type EventsHandler struct {
	app     App
	clients map[*wsClient]bool
	mu      sync.RWMutex
}

// wsClient serializes writes to one connection, since the broadcast loop
// and per-client replies write concurrently.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(v interface{}) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// NewEventsHandler creates a new EventsHandler bound to the given app.
func NewEventsHandler(app App) *EventsHandler {
	h := &EventsHandler{
		app:     app,
		clients: make(map[*wsClient]bool),
	}

	app.OnSelection(func(region menu.Region) {
		h.push(map[string]interface{}{
			"type":   "selection",
			"region": region,
		})
	})
	app.OnHover(func(id string, active bool) {
		h.push(map[string]interface{}{
			"type":   "hover",
			"id":     id,
			"active": active,
		})
	})

	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &wsClient{conn: conn}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		h.handleMessage(c, data)
	}
}

// clientMessage is the inbound action envelope.
type clientMessage struct {
	Type    string        `json:"type"`
	Update  *menu.Update  `json:"update,omitempty"`
	Regions []menu.Region `json:"regions,omitempty"`
}

// handleMessage applies one inbound client action. Failures answer only
// the sending client.
func (h *EventsHandler) handleMessage(c *wsClient, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(c, "invalid JSON")
		return
	}

	switch msg.Type {
	case "settings":
		if msg.Update == nil {
			h.sendError(c, "missing update")
			return
		}
		if err := h.app.UpdateSettings(*msg.Update); err != nil {
			h.sendError(c, err.Error())
		}
	case "close_menu":
		h.app.CloseMenu()
	case "regions":
		if err := validateRegions(msg.Regions); err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.app.SetRegions(msg.Regions)
	default:
		h.sendError(c, "unknown message type "+msg.Type)
	}
}

func (h *EventsHandler) sendError(c *wsClient, message string) {
	c.send(map[string]interface{}{
		"type":  "error",
		"error": message,
	})
}

// broadcast sends the board snapshot to all connected clients.
func (h *EventsHandler) broadcast() {
	ticker := time.NewTicker(66 * time.Millisecond) // ~15 FPS
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		n := len(h.clients)
		h.mu.RUnlock()
		if n == 0 {
			continue
		}

		h.push(map[string]interface{}{
			"type":      "state",
			"state":     h.app.LatestState(),
			"timestamp": time.Now().UnixMilli(),
		})
	}
}

// push sends one message to every connected client.
func (h *EventsHandler) push(v interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.send(v)
	}
}
