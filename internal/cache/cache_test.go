package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhigyan2003/github-repo-ai-agent/internal/monitoring"
)

func TestSetGetRoundtrip(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("key", []byte(`{"ok":true}`))
	data, found := c.Get("key")

	require.True(t, found)
	assert.Equal(t, []byte(`{"ok":true}`), data)
	assert.Equal(t, 1, c.Size())
}

func TestGetMissesAfterExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)

	c.Set("key", []byte("data"))
	time.Sleep(25 * time.Millisecond)

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestClearAndDelete(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	c.Delete("a")
	_, found := c.Get("a")
	assert.False(t, found)
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestStatsShape(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", []byte("1"))

	stats := c.Stats()
	assert.Equal(t, 1, stats["total_items"])
	assert.Equal(t, 0, stats["expired_items"])
	assert.Equal(t, 1, stats["active_items"])
	assert.Equal(t, 60.0, stats["ttl_seconds"])
}

func newCachedRouter(c *Cache, metrics *monitoring.Metrics, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(c.Middleware(metrics))
	router.GET("/analyze", func(ctx *gin.Context) {
		*calls++
		ctx.JSON(http.StatusOK, gin.H{"repo": ctx.Query("repo")})
	})
	router.GET("/health", func(ctx *gin.Context) {
		*calls++
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestMiddlewareServesSecondRequestFromCache(t *testing.T) {
	calls := 0
	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()
	router := newCachedRouter(c, metrics, &calls)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/analyze?repo=https://github.com/octocat/hello-world", nil))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/analyze?repo=https://github.com/octocat/hello-world", nil))

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestMiddlewareKeysByRepoParameter(t *testing.T) {
	calls := 0
	c := NewCache(time.Minute)
	router := newCachedRouter(c, monitoring.NewMetrics(), &calls)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/analyze?repo=https://github.com/octocat/hello-world", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/analyze?repo=https://github.com/octocat/spoon-knife", nil))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, c.Size())
}

func TestMiddlewareSkipsOtherPathsAndEmptyRepo(t *testing.T) {
	calls := 0
	c := NewCache(time.Minute)
	router := newCachedRouter(c, monitoring.NewMetrics(), &calls)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/analyze", nil))

	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, c.Size())
}

func TestMiddlewareDoesNotCacheErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := NewCache(time.Minute)
	router := gin.New()
	router.Use(c.Middleware(monitoring.NewMetrics()))
	router.GET("/analyze", func(ctx *gin.Context) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid GitHub URL"})
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/analyze?repo=nonsense", nil))

	assert.Equal(t, 0, c.Size())
}
