package events

import (
	"context"
	"fmt"
	"time"

	"certregistry/model"

	"github.com/redis/go-redis/v9"
)

// redisPubSub is the part of *redis.Client used by RedisPublisher.
type redisPubSub interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes envelopes on a Redis pub/sub channel.
type RedisPublisher struct {
	client  redisPubSub
	channel string
	timeout time.Duration
}

// NewRedisPublisher connects to redisURL and verifies the connection.
func NewRedisPublisher(ctx context.Context, redisURL, channel string, timeout time.Duration) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return newRedisPublisher(client, channel, timeout), nil
}

func newRedisPublisher(client redisPubSub, channel string, timeout time.Duration) *RedisPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RedisPublisher{client: client, channel: channel, timeout: timeout}
}

func (r *RedisPublisher) Publish(event model.Event) {
	env, body, ok := encode("RedisPublisher", event)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		logger.Warningf("RedisPublisher: failed to publish %s [%s] on channel '%s': %v", env.Name, env.ID, r.channel, err)
	}
}

// Close closes the Redis client.
func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
