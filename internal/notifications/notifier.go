// Package notifications delivers activity events to websocket subscribers,
// fanning out through Redis pub/sub when more than one instance is running.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"thoughtnet/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	// BroadcastChannel carries every activity event.
	BroadcastChannel = "activity:broadcast"

	userChannelPrefix  = "activity:user:"
	userChannelPattern = userChannelPrefix + "*"
)

// UserChannel returns the channel carrying events that concern userID.
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// Notifier publishes activity payloads into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether the notifier is backed by Redis.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishUser sends payload to the channel of userID.
func (n *Notifier) PublishUser(ctx context.Context, userID, payload string) error {
	if !n.Enabled() {
		return nil
	}
	if err := n.rdb.Publish(ctx, UserChannel(userID), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", UserChannel(userID), err)
	}
	return nil
}

// PublishBroadcast sends payload to the global activity channel.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if !n.Enabled() {
		return nil
	}
	if err := n.rdb.Publish(ctx, BroadcastChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", BroadcastChannel, err)
	}
	return nil
}

// StartSubscriber subscribes to the broadcast channel and every user channel
// and calls onMessage for each incoming message until ctx is cancelled.
func (n *Notifier) StartSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPattern, BroadcastChannel)
	// Wait for the subscription confirmation so publishes issued right after
	// this call are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe activity channels: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in activity subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
