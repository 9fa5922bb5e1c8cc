// Package cache holds analysis responses for their TTL so repeated
// lookups of the same repository do not re-run the pipeline.
package cache

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/abhigyan2003/github-repo-ai-agent/internal/monitoring"
)

const cleanupInterval = 5 * time.Minute

type entry struct {
	payload   []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Cache is a goroutine-safe in-memory byte cache with a fixed TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
}

// NewCache builds a cache whose entries live for ttl. A background
// sweep drops expired entries so the map does not grow unbounded.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
	go c.sweep()
	return c
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for now := range ticker.C {
		c.mu.Lock()
		for key, e := range c.entries {
			if e.expired(now) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}

func (c *Cache) generateKey(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Get returns the payload stored under key, if present and fresh.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		c.Delete(key)
		return nil, false
	}
	return e.payload, true
}

// Set stores payload under key for the cache's TTL.
func (c *Cache) Set(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		payload:   payload,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete drops one entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Size reports the number of stored entries, fresh or not.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats summarizes occupancy for the /cache/stats endpoint.
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	expired := 0
	for _, e := range c.entries {
		if e.expired(now) {
			expired++
		}
	}

	return map[string]interface{}{
		"total_items":   len(c.entries),
		"expired_items": expired,
		"active_items":  len(c.entries) - expired,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

// Middleware caches successful GET /analyze responses keyed by the repo
// query parameter. Other routes, empty parameters, and non-200 responses
// pass through untouched.
func (c *Cache) Middleware(metrics *monitoring.Metrics) func(*gin.Context) {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet || ctx.Request.URL.Path != "/analyze" {
			ctx.Next()
			return
		}

		repo := strings.TrimSpace(ctx.Query("repo"))
		if repo == "" {
			ctx.Next()
			return
		}

		key := c.generateKey(repo)
		if payload, ok := c.Get(key); ok {
			slog.Debug("Cache hit", "key", key[:8])
			metrics.IncrementCacheHit()
			ctx.Data(http.StatusOK, "application/json", payload)
			ctx.Abort()
			return
		}

		slog.Debug("Cache miss", "key", key[:8])
		metrics.IncrementCacheMiss()

		recorder := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = recorder
		ctx.Next()

		if ctx.Writer.Status() == http.StatusOK {
			c.Set(key, recorder.body.Bytes())
		}
	}
}

// responseWriter tees the handler's output so a 200 body can be stored
// after it has been sent.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
