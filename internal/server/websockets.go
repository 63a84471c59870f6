package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// writeWait bounds how long a notification write may block on one client.
const writeWait = 5 * time.Second

// wsClient pairs a connection with its own write lock, so a slow client
// only ever stalls its own notifications.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Hub holds active dashboard connections: map[username] -> client.
// When a coaching turn merges a plan update, the user's dashboard gets a
// "REFRESH" nudge instead of polling.
type Hub struct {
	mu       sync.Mutex
	clients  map[string]*wsClient
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*wsClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Allow CORS for development
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register tracks a new client connection, replacing any previous one for
// the same user.
func (h *Hub) Register(user string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[user]; ok {
		old.conn.Close()
	}
	h.clients[user] = &wsClient{conn: conn}
	log.Info().Str("user", user).Msg("WebSocket client connected")
}

// Unregister drops a client (when they close the tab).
func (h *Hub) Unregister(user string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[user]; ok {
		delete(h.clients, user)
		log.Info().Str("user", user).Msg("WebSocket client disconnected")
	}
}

// NotifyRefresh tells a specific user's dashboard to reload its plan. The
// hub lock is held only for the lookup; the write itself runs under the
// client's own lock with a deadline, so one stalled connection cannot back
// up notifications for everyone else.
func (h *Hub) NotifyRefresh(user string) {
	h.mu.Lock()
	cl, ok := h.clients[user]
	h.mu.Unlock()
	if !ok {
		return
	}

	cl.mu.Lock()
	cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := cl.conn.WriteMessage(websocket.TextMessage, []byte("REFRESH"))
	cl.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("user", user).Msg("Failed to send WS message, removing client")
		cl.conn.Close()
		h.mu.Lock()
		if cur, ok := h.clients[user]; ok && cur == cl {
			delete(h.clients, user)
		}
		h.mu.Unlock()
	}
}

// websocketHandler upgrades the connection and parks it in the hub until the
// client goes away.
func (s *Server) websocketHandler(c echo.Context) error {
	user := c.Request().Header.Get("X-User-ID")
	if user == "" {
		user = c.QueryParam("user")
	}
	if user == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing user identity")
	}

	conn, err := s.hub.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	s.hub.Register(user, conn)

	go func() {
		defer func() {
			s.hub.Unregister(user)
			conn.Close()
		}()
		for {
			// Reads only serve to detect the close; clients never send.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}
