package monitoring

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request correlation ID on both request
// and response.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with a correlation ID, keeping
// one supplied by the caller, and echoes it on the response. The ID is
// written back onto the request headers so downstream handlers and the
// error renderer see the same value.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, id)
		}

		c.Set("request_id", id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// MonitoringMiddleware creates Gin middleware for request monitoring
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Increment request count
		metrics.IncrementRequest()

		// Get client information
		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		method := c.Request.Method
		path := c.Request.URL.Path

		// Process request
		c.Next()

		// Calculate response time
		duration := time.Since(start)
		statusCode := c.Writer.Status()

		// Record enhanced metrics
		metrics.RecordResponseTime(duration)
		metrics.RecordRequestByStatus(statusCode)

		if statusCode >= 400 {
			metrics.IncrementError()
		}

		// Log request details
		logger.RequestLogger(method, path, ip, userAgent, statusCode, duration)

		// Log errors if any
		if len(c.Errors) > 0 {
			for _, err := range c.Errors {
				logger.APIErrorLogger(err.Err, method, path, ip, statusCode)
			}
		}

		// Log performance warnings for slow requests
		if duration > 5*time.Second {
			logger.PerformanceLogger("slow_request", duration.Seconds(), "seconds")
		}

		// Log high error rates or unusual patterns
		if statusCode >= 500 {
			logger.SystemLogger("high_error_rate_detected", fmt.Sprintf("Status %d for %s %s", statusCode, method, path))
		}
	}
}
