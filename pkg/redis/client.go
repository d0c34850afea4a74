package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/emblem-network/emblemx/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AccountUpdatedChannel is the Pub/Sub channel committed account keys are
// published on so sibling processes can react to cache changes.
const AccountUpdatedChannel = "emblemx:accounts:updated"

// Client wraps the Redis client for best-effort change-signal fanout.
type Client struct {
	client *redis.Client
	logger *zap.Logger
}

// NewClient creates a new Redis client using environment variables for configuration.
// Environment variables:
//   - REDIS_HOST: Redis host (default: "localhost")
//   - REDIS_PORT: Redis port (default: "6379")
//   - REDIS_PASSWORD: Redis password (default: "")
//   - REDIS_DB: Redis database number (default: "0")
func NewClient(ctx context.Context, logger *zap.Logger) (*Client, error) {
	host := utils.Env("REDIS_HOST", "localhost")
	port := utils.Env("REDIS_PORT", "6379")
	password := utils.Env("REDIS_PASSWORD", "")
	db := utils.EnvInt("REDIS_DB", 0)

	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", addr), zap.Int("db", db))

	return &Client{client: rdb, logger: logger}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Health checks if Redis is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// AccountUpdated publishes a committed canonical key. Best-effort: a publish
// failure is logged and never propagates into the commit pipeline.
func (c *Client) AccountUpdated(ctx context.Context, key string) {
	if err := c.client.Publish(ctx, AccountUpdatedChannel, key).Err(); err != nil {
		c.logger.Warn("Failed to publish account update",
			zap.String("key", key),
			zap.Error(err))
	}
}
