package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisDispatcher fans events out through a Redis pub/sub channel so sockets held by any
// instance receive them. Delivery is at-most-once.
type RedisDispatcher struct {
	client  *redis.Client
	channel string
	local   *LocalDispatcher
	logger  *zap.Logger
}

// NewRedisDispatcher builds a dispatcher publishing on channel.
func NewRedisDispatcher(client *redis.Client, channel string, logger *zap.Logger) *RedisDispatcher {
	return &RedisDispatcher{
		client:  client,
		channel: channel,
		local:   NewLocalDispatcher(),
		logger:  logger,
	}
}

// Publish sends the event to every subscribed instance, this one included.
func (d *RedisDispatcher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return d.client.Publish(ctx, d.channel, data).Err()
}

// Subscribe registers a local handler invoked for events received from the channel.
func (d *RedisDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.local.Subscribe(eventType, handler)
}

// Run consumes the channel until ctx is cancelled or the subscription fails.
func (d *RedisDispatcher) Run(ctx context.Context) error {
	sub := d.client.Subscribe(ctx, d.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", d.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription %s closed", d.channel)
			}
			d.deliver(ctx, msg.Payload)
		}
	}
}

func (d *RedisDispatcher) deliver(ctx context.Context, payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		d.logger.Warn("dropping malformed event", zap.Error(err))
		return
	}
	if err := d.local.Publish(ctx, event); err != nil {
		d.logger.Warn("event handler failed", zap.String("event_id", event.ID), zap.String("type", string(event.Type)), zap.Error(err))
	}
}
