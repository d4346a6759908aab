package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/logging"
	"github.com/ayusman/facetrack/internal/overlay"
)

const (
	writeWait      = 5 * time.Second
	clientSendSize = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// overlayMessage is the websocket payload for one overlay update.
type overlayMessage struct {
	Type string `json:"type"`
	overlay.Update
}

type hubClient struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// OverlayHub is an overlay presenter that pushes every update to connected
// websocket clients. A client that cannot keep up is disconnected.
type OverlayHub struct {
	log     *logrus.Entry
	clients map[uuid.UUID]*hubClient
	mu      sync.RWMutex
	closed  bool
}

// NewOverlayHub creates an empty hub.
func NewOverlayHub(logger logrus.FieldLogger) *OverlayHub {
	return &OverlayHub{
		log:     logging.Component(logger, "overlay-ws"),
		clients: make(map[uuid.UUID]*hubClient),
	}
}

func (h *OverlayHub) ShowFace(rect geometry.Rect, text string) {
	h.Present(overlay.Update{Visible: true, Rect: rect, Text: text, At: time.Now()})
}

func (h *OverlayHub) HideFace() {
	h.Present(overlay.Update{At: time.Now()})
}

// Present broadcasts u to every client.
func (h *OverlayHub) Present(u overlay.Update) {
	msgType := "hide"
	if u.Visible {
		msgType = "show"
	}
	msg, err := json.Marshal(overlayMessage{Type: msgType, Update: u})
	if err != nil {
		h.log.WithError(err).Error("failed to encode overlay update")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.WithField("client", id).Warn("websocket client too slow, disconnecting")
			h.removeLocked(id)
		}
	}
}

// Clients returns the number of connected clients.
func (h *OverlayHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *OverlayHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id := range h.clients {
		h.removeLocked(id)
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *OverlayHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade error")
		return
	}

	c := &hubClient{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, clientSendSize),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	h.log.WithField("client", c.id).Debug("websocket client connected")

	go h.writeLoop(c)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	h.removeLocked(c.id)
	h.mu.Unlock()
	h.log.WithField("client", c.id).Debug("websocket client disconnected")
}

func (h *OverlayHub) writeLoop(c *hubClient) {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// removeLocked drops a client and ends its writer. h.mu must be held.
func (h *OverlayHub) removeLocked(id uuid.UUID) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	close(c.send)
}
