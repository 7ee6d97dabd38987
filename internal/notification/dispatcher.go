package notification

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dispatcher pushes a freshly created notification to any realtime
// delivery channel. Delivery is best-effort: failures are logged, never
// surfaced to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *Notification)
}

type redisDispatcher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisDispatcher publishes notifications on a per-user Redis channel
// so websocket or SSE frontends can pick them up live.
func NewRedisDispatcher(client *redis.Client, logger *zap.Logger) Dispatcher {
	return &redisDispatcher{client: client, logger: logger}
}

func (d *redisDispatcher) Dispatch(ctx context.Context, n *Notification) {
	payload, err := json.Marshal(map[string]any{
		"id":         n.ID,
		"title":      n.Title,
		"message":    n.Message,
		"link":       n.Link,
		"created_at": n.CreatedAt,
	})
	if err != nil {
		d.logger.Error("marshal notification payload failed", zap.Error(err))
		return
	}

	channel := "notify:" + n.UserID
	if err := d.client.Publish(ctx, channel, payload).Err(); err != nil {
		d.logger.Warn("publish notification failed",
			zap.String("channel", channel),
			zap.Error(err),
		)
	}
}

type nopDispatcher struct{}

// NewNopDispatcher is used when no Redis instance is configured.
func NewNopDispatcher() Dispatcher {
	return nopDispatcher{}
}

func (nopDispatcher) Dispatch(context.Context, *Notification) {}
