package api

import (
	"encoding/json"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
)

// StreamActivity streams engine events (dispatches, errors, permission
// topology changes) to a WebSocket client until it disconnects.
func (s *Server) StreamActivity(c *websocket.Conn) {
	defer c.Close()

	ch, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()

	// Detect client disconnect by reading in the background; inbound
	// payloads are ignored.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				slog.Error("failed to marshal activity event", "error", err)
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
