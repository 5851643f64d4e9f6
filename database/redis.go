package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// OpenRedis parses redisURL and applies the optional access token as the
// password. It does not touch the network.
func OpenRedis(redisURL, token string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "http://") || strings.HasPrefix(redisURL, "https://") {
		return nil, fmt.Errorf("invalid Redis URL: REST endpoints are not supported, use the rediss:// connection string")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	if token != "" {
		opts.Password = token
	}
	return redis.NewClient(opts), nil
}

// NewRedisClient opens the client and checks the connection.
func NewRedisClient(ctx context.Context, redisURL, token string) (*redis.Client, error) {
	client, err := OpenRedis(redisURL, token)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
