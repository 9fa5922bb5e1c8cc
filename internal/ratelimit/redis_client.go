package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var errRedisDisabled = errors.New("redis is disabled")

// RedisClient wraps the Redis connection the limiter shares. A client
// that never connected stays disabled and the limiter runs purely on its
// in-memory fallback.
type RedisClient struct {
	client *redis.Client
	addr   string
}

// NewRedisClient dials addr and verifies the connection with a ping.
// An empty addr or a failed ping yields a disabled client.
func NewRedisClient(addr, password string, db int) *RedisClient {
	if addr == "" {
		slog.Warn("Redis URL not configured, rate limiting will use in-memory fallback")
		return &RedisClient{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  4 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Redis ping failed, falling back to in-memory rate limiting", "addr", addr, "error", err)
		_ = client.Close()
		return &RedisClient{addr: addr}
	}

	slog.Info("Redis client connected", "addr", addr, "db", db)
	return &RedisClient{client: client, addr: addr}
}

// GetClient exposes the raw client for redis_rate.
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

// IsEnabled reports whether the connection was established.
func (r *RedisClient) IsEnabled() bool {
	return r.client != nil
}

// HealthCheck pings the server.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r.client == nil {
		return errRedisDisabled
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool. Closing a disabled client is a
// no-op.
func (r *RedisClient) Close() error {
	if r.client == nil {
		return nil
	}
	slog.Info("Closing Redis client connection")
	return r.client.Close()
}

// GetPoolStats reports connection pool counters for /metrics.
func (r *RedisClient) GetPoolStats() map[string]interface{} {
	if r.client == nil {
		return map[string]interface{}{"enabled": false}
	}

	stats := r.client.PoolStats()
	return map[string]interface{}{
		"enabled":     true,
		"addr":        r.addr,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}
