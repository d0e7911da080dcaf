package server

import (
	"log/slog"

	"thoughtnet/internal/middleware"
	"thoughtnet/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ActivityFeed streams activity events over a websocket. With ?userId the
// connection receives the events concerning that user; without it, every
// event.
func (s *Server) ActivityFeed() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID := conn.Query("userId")
		if userID != "" && !models.IsValidID(userID) {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"Invalid user ID"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("activity feed registration rejected",
				slog.String("user_id", userID), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
