// Package notify is the broadcast port for UI cache invalidation. Events
// are fire-and-forget hints: at-most-once, unordered, never a source of
// truth. Clients re-fetch authoritative state when they receive one.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Event is a domain change notification topic.
type Event string

const (
	EventTablesChanged  Event = "tables_changed"
	EventTillChanged    Event = "till_changed"
	EventKitchenChanged Event = "kitchen_changed"
)

// Notifier publishes best-effort change events. Implementations must
// never block the caller's request path on delivery.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// message is the wire form published on the Redis channel.
type message struct {
	Event     Event     `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisNotifier broadcasts events over a Redis pub/sub channel so every
// connected UI gateway instance sees them.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisNotifier creates a notifier publishing on channel.
func NewRedisNotifier(rdb *redis.Client, channel string, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel, logger: logger}
}

// Notify publishes the event. Failures are logged and swallowed; a lost
// invalidation hint only delays a UI refresh.
func (n *RedisNotifier) Notify(ctx context.Context, ev Event) {
	payload, err := json.Marshal(message{Event: ev, Timestamp: time.Now()})
	if err != nil {
		n.logger.Error("Failed to marshal notification", zap.Error(err))
		return
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.logger.Warn("Failed to publish notification",
			zap.String("event", string(ev)),
			zap.Error(err))
	}
}

// Subscribe returns a channel of events published on the notifier's
// Redis channel, for the UI gateway. The returned cancel func stops the
// subscription.
func (n *RedisNotifier) Subscribe(ctx context.Context) (<-chan Event, func()) {
	sub := n.rdb.Subscribe(ctx, n.channel)
	out := make(chan Event, 16)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var m message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				n.logger.Warn("Malformed notification payload", zap.Error(err))
				continue
			}
			select {
			case out <- m.Event:
			default:
				// drop if slow consumer
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel
}

// NopNotifier discards all events. Used in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
