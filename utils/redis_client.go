package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates a new Redis client with connection pooling. The
// ledger is unusable without its persistence backend, so a failed ping at
// boot is fatal.
func NewRedisClient(url, password string, db int) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		// Fall back to simple connection
		opts = &redis.Options{
			Addr:     url,
			Password: password,
			DB:       db,
		}
	}

	// Configure connection pool
	opts.PoolSize = 100
	opts.MinIdleConns = 10
	opts.MaxRetries = 3

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	log.Println("Successfully connected to Redis")
	return client
}

// RedisHealthCheck performs a health check on Redis connection
func RedisHealthCheck(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	return nil
}
