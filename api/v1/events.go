package v1

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// local demo, any origin may connect
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans storage events out to connected websocket clients, so the form
// page can refresh its recent-files list without polling.
type hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		conn.Close()
		delete(h.conns, conn)
	}
}

func (h *hub) broadcast(v any) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(v); err != nil {
			h.remove(conn)
		}
	}
}

// watchFiles bridges the storage facade's subscription into the hub. Runs
// for the lifetime of the process.
func (c *Controller) watchFiles() {
	events, cancel := c.files.Subscribe()
	defer cancel()

	for ev := range events {
		c.hub.broadcast(ev)
	}
}

// Events upgrades the connection to a websocket and streams save/remove
// events until the client disconnects.
func (c *Controller) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		c.hub.add(conn)

		// drain client frames until close so the connection stays alive
		go func() {
			defer c.hub.remove(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
