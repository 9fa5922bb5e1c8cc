package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	apperrors "github.com/abhigyan2003/github-repo-ai-agent/internal/errors"
)

// IPRateLimitMiddleware enforces the per-IP budget on every route. A
// limiter error admits the request; throttling must not take the service
// down with it.
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		result, err := rl.AllowIP(c.Request.Context(), ip)
		if err != nil {
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
			}
			rejectTooManyRequests(c, result)
			return
		}

		c.Next()
	}
}

// EndpointRateLimitMiddleware layers a tighter per-minute budget onto one
// route, keyed by endpoint and client IP.
func (rl *RateLimiter) EndpointRateLimitMiddleware(endpoint string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		key := "ratelimit:endpoint:" + endpoint + ":" + ip

		result, err := rl.allow(c.Request.Context(), key, limit, time.Minute)
		if err != nil {
			slog.Error("Endpoint rate limit check failed", "endpoint", endpoint, "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Endpoint-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Endpoint-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitEndpoint(endpoint)
			}
			rejectTooManyRequests(c, result)
			return
		}

		c.Next()
	}
}

// rejectTooManyRequests aborts with the structured 429 body plus the
// retry headers clients use for backoff.
func rejectTooManyRequests(c *gin.Context, result *Result) {
	retryAfter := int(result.RetryAfter.Seconds())
	c.Header("Retry-After", strconv.Itoa(retryAfter))

	appErr := apperrors.NewRateLimitError(strconv.Itoa(retryAfter))
	appErr.RequestID = c.GetString("request_id")

	body := apperrors.ErrorResponse(appErr)
	body["retry_after"] = retryAfter
	body["reset_at"] = result.ResetAt.Unix()

	c.JSON(http.StatusTooManyRequests, body)
	c.Abort()
}
