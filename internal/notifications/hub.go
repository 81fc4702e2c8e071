package notifications

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub streams notifications to browsers over websocket connections.
type Hub struct {
	mu         sync.Mutex
	conns      map[*websocket.Conn]struct{}
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewHub creates a Hub over d. It receives nothing until Start.
func NewHub(d *Dispatcher, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		conns:      make(map[*websocket.Conn]struct{}),
		dispatcher: d,
		logger:     logger,
	}
}

// Start subscribes to the dispatcher and forwards notifications to connected
// clients in the background until ctx is done. Notifications raised after
// Start returns are delivered.
func (h *Hub) Start(ctx context.Context) {
	sub, cancel := h.dispatcher.Subscribe()
	go h.forward(ctx, sub, cancel)
}

func (h *Hub) forward(ctx context.Context, sub <-chan Notification, cancel func()) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case n, ok := <-sub:
			if !ok {
				return
			}
			h.broadcast(n)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// ServeHTTP upgrades the connection, sends the active notifications and
// keeps the client registered until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "error", err)
		return
	}

	h.mu.Lock()
	for _, n := range h.dispatcher.Active() {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(n); err != nil {
			h.mu.Unlock()
			conn.Close()
			return
		}
	}
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	defer h.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read", "error", err)
			}
			return
		}
	}
}

func (h *Hub) broadcast(n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(n); err != nil {
			h.logger.Debug("websocket write", "error", err)
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	conn.Close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}
