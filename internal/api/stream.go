package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/duskvale/patternmarket/internal/feed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamHub fans the exchange event channel out to websocket clients.
// Clients that fall behind or error are dropped.
type streamHub struct {
	log     *zap.Logger
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func newStreamHub(logger *zap.Logger) *streamHub {
	return &streamHub{
		log:     logger,
		clients: make(map[*websocket.Conn]bool),
	}
}

// run broadcasts until the event channel closes.
func (h *streamHub) run(events <-chan feed.Item) {
	for it := range events {
		payload, err := json.Marshal(it)
		if err != nil {
			continue
		}
		h.mu.Lock()
		for conn := range h.clients {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}

	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *streamHub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Drain client frames so pings and close handshakes are handled;
	// unregister on the first read error.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}
