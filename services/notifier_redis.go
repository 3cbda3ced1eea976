package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultOrderChannel is the pub/sub channel dashboards subscribe to
const DefaultOrderChannel = "tableside:orders"

// RedisNotifier publishes order events over redis pub/sub
type RedisNotifier struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisNotifier creates a notifier on an existing client
func NewRedisNotifier(client redis.UniversalClient, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultOrderChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

// OrderChanged implements Notifier
func (n *RedisNotifier) OrderChanged(ctx context.Context, orderID uint) error {
	data, err := json.Marshal(newOrderEvent(orderID))
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.channel, err)
	}
	return nil
}
