package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/costsim/internal/domain"
)

// EstimateBus implements domain.EstimateBus using Redis Pub/Sub. The bus is
// publish-only: external consumers subscribe with their own clients.
type EstimateBus struct {
	rdb *redis.Client
}

var _ domain.EstimateBus = (*EstimateBus)(nil)

// NewEstimateBus creates an EstimateBus backed by the given Client.
func NewEstimateBus(c *Client) *EstimateBus {
	return &EstimateBus{rdb: c.Underlying()}
}

// Publish sends a raw byte payload to a Redis Pub/Sub channel.
func (b *EstimateBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}
