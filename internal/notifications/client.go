package notifications

import (
	"log/slog"
	"time"

	"thoughtnet/internal/middleware"
	"thoughtnet/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// The feed is server-push only; inbound frames are small control messages.
	maxMessageSize = 1024

	sendBufferSize = 64
)

// Unregisterer is implemented by hubs that track clients.
type Unregisterer interface {
	UnregisterClient(c *Client)
}

// Client sits between one websocket connection and the hub.
type Client struct {
	Hub  Unregisterer
	Conn *websocket.Conn
	Send chan []byte

	// UserID is empty for clients following the global feed.
	UserID string
}

// NewClient creates a Client with a buffered outbound queue.
func NewClient(hub Unregisterer, conn *websocket.Conn, userID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// ReadPump drains inbound frames so pongs and close frames are processed.
// It unregisters the client when the connection goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Warn("activity feed read error",
					slog.String("user_id", c.UserID), slog.String("error", err.Error()))
			}
			return
		}
	}
}

// WritePump sends queued events and keepalive pings to the peer.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues message without blocking. Messages for a client whose
// buffer is full, or whose queue was already closed, are dropped.
func (c *Client) TrySend(message []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketDrops.Inc()
			sent = false
		}
	}()

	select {
	case c.Send <- message:
		return true
	default:
		observability.WebSocketDrops.Inc()
		middleware.Logger.Warn("activity feed buffer full, dropped event",
			slog.String("user_id", c.UserID))
		return false
	}
}
