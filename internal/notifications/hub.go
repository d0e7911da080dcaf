package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"thoughtnet/internal/middleware"
	"thoughtnet/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrUserConnLimit   = errors.New("user connection limit reached")
)

// Hub maps a subscription key to its connected clients. The empty key holds
// clients following the global feed.
type Hub struct {
	mu           sync.RWMutex
	conns        map[string]map[*Client]struct{}
	totalConns   int
	shutdownOnce sync.Once
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]map[*Client]struct{}),
	}
}

// Register adds a connection subscribed to userID, or to the global feed
// when userID is empty.
func (h *Hub) Register(userID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if userID != "" && len(m) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnections.Inc()

	return client, nil
}

// UnregisterClient removes client. Unknown clients are ignored.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		observability.WebSocketConnections.Dec()
	}
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// Broadcast sends message to every client subscribed to userID.
func (h *Hub) Broadcast(userID, message string) {
	if userID == "" {
		return
	}
	h.send(userID, []byte(message))
}

// BroadcastAll sends message to every client following the global feed.
func (h *Hub) BroadcastAll(message string) {
	h.send("", []byte(message))
}

func (h *Hub) send(key string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[key] {
		c.TrySend(data)
	}
}

// StartWiring forwards messages received by n to the matching local clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, func(channel, payload string) {
		if channel == BroadcastChannel {
			h.BroadcastAll(payload)
			return
		}
		userID, ok := strings.CutPrefix(channel, userChannelPrefix)
		if !ok || userID == "" {
			middleware.Logger.Warn("invalid activity channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown closes every connection with a going-away frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.shutdownOnce.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		for userID, clients := range h.conns {
			for client := range clients {
				observability.WebSocketConnections.Dec()
				if client.Conn == nil {
					continue
				}
				if err := client.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
					middleware.Logger.Debug("failed to write close frame",
						slog.String("user_id", userID), slog.String("error", err.Error()))
				}
				_ = client.Conn.Close()
			}
		}
		h.conns = make(map[string]map[*Client]struct{})
		h.totalConns = 0
	})
	return nil
}
