package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/musaabMD/expoiosweb/internal/events"
	goredis "github.com/redis/go-redis/v9"
)

// PublishClient is the subset of the Redis client the publisher needs.
type PublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// Publisher forwards events to a Redis pub/sub channel as JSON.
type Publisher struct {
	client  PublishClient
	channel string
}

var _ events.EventHandler = (*Publisher)(nil)

// NewPublisher creates a Publisher for channel.
func NewPublisher(client PublishClient, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

// HandleEvent implements events.EventHandler.
func (p *Publisher) HandleEvent(ctx context.Context, event *events.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish event %s to %s: %w", event.ID, p.channel, err)
	}
	return nil
}
