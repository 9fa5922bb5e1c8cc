package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMonitoredRouter(metrics *Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(MonitoringMiddleware(metrics, NewLogger()))
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/bad", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false})
	})
	return router
}

func TestMonitoringMiddlewareRecordsRequests(t *testing.T) {
	metrics := NewMetrics()
	router := newMonitoredRouter(metrics)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, int64(1), stats["error_count"])

	dist := metrics.GetStatusCodeDistribution()
	assert.Equal(t, int64(1), dist[http.StatusOK])
	assert.Equal(t, int64(1), dist[http.StatusBadRequest])
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	router := newMonitoredRouter(NewMetrics())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	id := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	assert.Len(t, id, 36)
}

func TestRequestIDEchoedWhenSupplied(t *testing.T) {
	router := newMonitoredRouter(NewMetrics())

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "client-supplied-id", w.Header().Get(RequestIDHeader))
}
