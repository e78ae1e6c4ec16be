package server

import (
	"encoding/json"
	"log"

	"inkwell/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketFeedHandler streams feed events to connected clients. The feed is
// public: requests without a valid token join as anonymous watchers under
// user ID 0 and still receive every broadcast.
func (s *Server) WebSocketFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		var userID uint
		if uid, ok := conn.Locals("userID").(uint); ok {
			userID = uid
		}

		client, err := s.feedHub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket Feed: failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		welcome, _ := json.Marshal(map[string]any{
			"type":      "connected",
			"user_id":   userID,
			"anonymous": userID == 0,
		})
		client.TrySend(welcome)

		go client.WritePump()

		// Read pump runs in the handler goroutine and blocks until the
		// connection drops.
		client.ReadPump()
	})
}
