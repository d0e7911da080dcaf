package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	"thoughtnet/internal/middleware"
)

// Activity event types.
const (
	EventThoughtCreated  = "thought_created"
	EventThoughtUpdated  = "thought_updated"
	EventThoughtDeleted  = "thought_deleted"
	EventReactionAdded   = "reaction_added"
	EventReactionRemoved = "reaction_removed"
	EventUserCreated     = "user_created"
	EventUserUpdated     = "user_updated"
	EventUserDeleted     = "user_deleted"
	EventFriendAdded     = "friend_added"
	EventFriendRemoved   = "friend_removed"
)

// Event is the JSON frame written to feed subscribers.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Publisher accepts activity events. Implementations must not block the
// caller on slow subscribers and must not fail the calling operation.
type Publisher interface {
	Publish(ctx context.Context, evt Event, userIDs ...string)
}

// Dispatcher publishes through Redis when available and falls back to
// delivering on the local hub otherwise.
type Dispatcher struct {
	notifier *Notifier
	hub      *Hub
}

// NewDispatcher creates a Dispatcher. Either argument may be nil.
func NewDispatcher(n *Notifier, h *Hub) *Dispatcher {
	return &Dispatcher{notifier: n, hub: h}
}

// Publish sends evt to the global feed and to each distinct user in userIDs.
func (d *Dispatcher) Publish(ctx context.Context, evt Event, userIDs ...string) {
	data, err := json.Marshal(evt)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode activity event",
			slog.String("type", evt.Type), slog.String("error", err.Error()))
		return
	}
	payload := string(data)
	targets := distinct(userIDs)

	if d.notifier.Enabled() {
		if err := d.notifier.PublishBroadcast(ctx, payload); err != nil {
			middleware.Logger.WarnContext(ctx, "activity broadcast failed",
				slog.String("type", evt.Type), slog.String("error", err.Error()))
		}
		for _, id := range targets {
			if err := d.notifier.PublishUser(ctx, id, payload); err != nil {
				middleware.Logger.WarnContext(ctx, "activity publish failed",
					slog.String("type", evt.Type), slog.String("user_id", id),
					slog.String("error", err.Error()))
			}
		}
		return
	}

	if d.hub == nil {
		return
	}
	d.hub.BroadcastAll(payload)
	for _, id := range targets {
		d.hub.Broadcast(id, payload)
	}
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
