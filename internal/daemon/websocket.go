package daemon

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The daemon only listens on loopback; the extension connects from a
	// browser origin, so the default same-origin check would reject it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const liveUpdateInterval = time.Second

// handleSessionLive streams the active session over a websocket, one
// frame per second, so the pill overlay can tick without polling.
func (s *Server) handleSessionLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("session live: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Drain client frames so pings and close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(liveUpdateInterval)
	defer ticker.Stop()

	for {
		current := s.tracker.Current(r.Context())
		var payload any
		if current == nil {
			payload = map[string]any{"active": false}
		} else {
			payload = map[string]any{
				"active":  true,
				"session": sessionView{ActiveSession: current, Duration: s.tracker.SessionDuration(current)},
			}
		}

		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(payload); err != nil {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
