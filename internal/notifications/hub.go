package notifications

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub keeps the live websocket connections of signed-in users and pushes
// new notifications to them.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[int64]map[*client]struct{}
	closed  bool
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		logger:   logger,
		clients:  make(map[int64]map[*client]struct{}),
	}
}

// ServeWS upgrades the request and keeps the connection registered for
// userID until the browser goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	if !h.register(userID, c) {
		conn.Close()
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop()
	}()

	c.readLoop()
	h.unregister(userID, c)
	close(c.done)
	<-writerDone
}

// Publish pushes n to its target user, or to everyone for a broadcast.
// Slow clients whose buffer is full miss the push; the notification is
// still listed on their next page load.
func (h *Hub) Publish(n Notification) {
	msg, err := json.Marshal(pushMessage{
		Type:    "notification",
		ID:      n.ID,
		Title:   n.Title,
		Message: n.Message,
		Kind:    "info",
	})
	if err != nil {
		h.logger.Error("marshalling push message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	deliver := func(set map[*client]struct{}) {
		for c := range set {
			select {
			case c.send <- msg:
			default:
				h.logger.Warn("dropping push to slow websocket client")
			}
		}
	}
	if n.UserID != nil {
		deliver(h.clients[*n.UserID])
		return
	}
	for _, set := range h.clients {
		deliver(set)
	}
}

// Connections returns the number of open connections for userID.
func (h *Hub) Connections(userID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, set := range h.clients {
		for c := range set {
			c.conn.Close()
		}
	}
}

func (h *Hub) register(userID int64, c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	return true
}

func (h *Hub) unregister(userID int64, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[userID], c)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// readLoop discards client frames and returns when the connection fails.
func (c *client) readLoop() {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
