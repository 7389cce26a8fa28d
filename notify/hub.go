// Package notify pushes interest events to connected buyers and sellers over websockets.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"krishilink/identity"
	"krishilink/logger"
	"krishilink/models"
	"krishilink/mq"
	"krishilink/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

type client struct {
	email string
	conn  *websocket.Conn
	send  chan []byte
}

type Hub struct {
	log      *logger.Logger
	verifier identity.Verifier
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

func NewHub(log *logger.Logger, verifier identity.Verifier) *Hub {
	return &Hub{
		log:      log.With("component", "NotifyHub"),
		verifier: verifier,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[string]map[*client]struct{}),
	}
}

// Emit queues ev for every connection of its recipient. Slow connections drop events.
func (h *Hub) Emit(_ context.Context, ev mq.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[models.NormalizeEmail(ev.Recipient)] {
		select {
		case c.send <- payload:
		default:
			h.log.Warn("dropping event for slow client", "email", c.email, "event", ev.Name)
		}
	}
	return nil
}

// Connections reports how many sockets are open for email.
func (h *Hub) Connections(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[models.NormalizeEmail(email)])
}

// ServeWS authenticates with the token query parameter (browsers cannot set
// headers on websocket requests) or a bearer header.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = identity.BearerToken(r.Header.Get("Authorization"))
	}
	email, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}

	c := &client{email: models.NormalizeEmail(email), conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	h.log.Debug("ws connected", "email", c.email)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.email]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.email] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.email]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.email)
	}
}

// readPump only tracks liveness; clients never send anything we act on.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.log.Debug("ws disconnected", "email", c.email)
	}()

	c.conn.SetReadLimit(512)
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

func (h *Hub) writePump(c *client) {
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
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client. Called during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for email, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, email)
	}
}
