// Package ratelimit throttles inbound traffic per client IP. Limits are
// tracked in Redis when one is configured so replicas share a budget;
// otherwise a local token bucket per key stands in.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"

	"github.com/abhigyan2003/github-repo-ai-agent/internal/monitoring"
)

const (
	minFallbackBurst      = 5
	fallbackSweepInterval = time.Hour
	fallbackSweepLimit    = 1000
)

// Config tunes the limiter.
type Config struct {
	IPLimitPerMin   int
	BurstMultiplier int
}

// DefaultConfig returns the stock per-IP budget.
func DefaultConfig() Config {
	return Config{
		IPLimitPerMin:   60,
		BurstMultiplier: 2,
	}
}

// Result reports one admission decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter admits or rejects requests per key. Redis-backed sliding
// windows are preferred; a per-key in-memory token bucket covers Redis
// being absent or failing.
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       Config
	metrics      *monitoring.Metrics

	fallbackMutex    sync.RWMutex
	fallbackLimiters map[string]*rate.Limiter
}

// NewRateLimiter wires the limiter to redisClient; a disabled client
// means every decision comes from the in-memory fallback.
func NewRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics) *RateLimiter {
	rl := &RateLimiter{
		redisClient:      redisClient,
		config:           config,
		metrics:          metrics,
		fallbackLimiters: make(map[string]*rate.Limiter),
	}

	if redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Warn("Redis unavailable, using in-memory rate limiting only")
	}

	go rl.sweepFallbackLimiters()
	return rl
}

// AllowIP checks the per-minute budget for one client IP.
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	return rl.allow(ctx, "ratelimit:ip:"+ip, rl.config.IPLimitPerMin, time.Minute)
}

func (rl *RateLimiter) allow(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	if rl.redisLimiter != nil {
		result, err := rl.allowRedis(ctx, key, limit, period)
		if err == nil {
			return result, nil
		}
		slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
		if rl.metrics != nil {
			rl.metrics.IncrementRateLimitRedisError()
		}
		return rl.allowFallback(key, limit, period)
	}

	if rl.metrics != nil {
		rl.metrics.IncrementRateLimitFallback()
	}
	return rl.allowFallback(key, limit, period)
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit,
		Burst:  limit,
		Period: period,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}, nil
}

func (rl *RateLimiter) allowFallback(key string, limit int, period time.Duration) (*Result, error) {
	limiter := rl.fallbackLimiter(key, limit, period)

	allowed := limiter.Allow()
	remaining := int(limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(period),
	}
	if !allowed {
		result.RetryAfter = time.Until(result.ResetAt)
	}
	return result, nil
}

func (rl *RateLimiter) fallbackLimiter(key string, limit int, period time.Duration) *rate.Limiter {
	rl.fallbackMutex.Lock()
	defer rl.fallbackMutex.Unlock()

	if limiter, ok := rl.fallbackLimiters[key]; ok {
		return limiter
	}

	burst := limit * rl.config.BurstMultiplier
	if burst < minFallbackBurst {
		burst = minFallbackBurst
	}
	limiter := rate.NewLimiter(rate.Limit(float64(limit)/period.Seconds()), burst)
	rl.fallbackLimiters[key] = limiter
	return limiter
}

// sweepFallbackLimiters drops the fallback map once it collects too many
// keys. Limiters recreate on demand, so a reset only briefly refills a
// client's bucket.
func (rl *RateLimiter) sweepFallbackLimiters() {
	ticker := time.NewTicker(fallbackSweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		rl.fallbackMutex.Lock()
		if len(rl.fallbackLimiters) > fallbackSweepLimit {
			slog.Info("Resetting fallback rate limiters", "count", len(rl.fallbackLimiters))
			rl.fallbackLimiters = make(map[string]*rate.Limiter)
		}
		rl.fallbackMutex.Unlock()
	}
}

// GetStats summarizes limiter state for the /metrics endpoint.
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.fallbackMutex.RLock()
	fallbackCount := len(rl.fallbackLimiters)
	rl.fallbackMutex.RUnlock()

	stats := map[string]interface{}{
		"redis_enabled":     rl.redisClient.IsEnabled(),
		"fallback_limiters": fallbackCount,
	}
	if rl.redisClient.IsEnabled() {
		stats["redis_pool"] = rl.redisClient.GetPoolStats()
	}
	return stats
}
