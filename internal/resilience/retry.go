// Package resilience holds the client-side failure handling shared by
// outbound calls: jittered-backoff retries and a circuit breaker.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/abhigyan2003/github-repo-ai-agent/internal/errors"
)

// RetryConfig tunes the backoff loop.
type RetryConfig struct {
	MaxAttempts     int              `json:"max_attempts"`
	InitialDelay    time.Duration    `json:"initial_delay"`
	MaxDelay        time.Duration    `json:"max_delay"`
	BackoffFactor   float64          `json:"backoff_factor"`
	JitterEnabled   bool             `json:"jitter_enabled"`
	RetryableErrors func(error) bool `json:"-"`
}

// DefaultRetryConfig retries twice more after the first failure, backing
// off from 100ms, and classifies errors via the shared taxonomy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        30 * time.Second,
		BackoffFactor:   2.0,
		JitterEnabled:   true,
		RetryableErrors: errors.IsRetryableError,
	}
}

// RetryableFunc is the unit of work the retry loop drives.
type RetryableFunc func() error

// RetryWithConfig runs fn until it succeeds, returns a non-retryable
// error, or exhausts the attempt budget. The context cancels both the
// work loop and any in-progress backoff sleep.
func RetryWithConfig(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !config.RetryableErrors(lastErr) || attempt == config.MaxAttempts-1 {
			break
		}

		if err := sleep(ctx, calculateDelay(config, attempt)); err != nil {
			return err
		}
	}

	return lastErr
}

// Retry runs fn under the default config.
func Retry(ctx context.Context, fn RetryableFunc) error {
	return RetryWithConfig(ctx, DefaultRetryConfig(), fn)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// calculateDelay grows the delay exponentially from InitialDelay, caps
// it at MaxDelay, and adds up to 10% jitter so synchronized clients
// spread out.
func calculateDelay(config RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt)))
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	if config.JitterEnabled {
		if tenth := int64(delay / 10); tenth > 0 {
			delay += time.Duration(rand.Int63n(tenth))
		}
	}
	return delay
}

// RetryableHTTPFunc issues one HTTP request.
type RetryableHTTPFunc func() (*http.Response, error)

// RetryHTTP drives fn with the same backoff loop, deciding on the
// response status as well as the error: 2xx and non-transient statuses
// return immediately (the caller owns the body), transient statuses
// (408, 429, 5xx) burn an attempt. Abandoned responses are closed here.
func RetryHTTP(ctx context.Context, config RetryConfig, fn RetryableHTTPFunc) (*http.Response, error) {
	var lastResp *http.Response
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := fn()
		switch {
		case err != nil:
			if !config.RetryableErrors(err) {
				return nil, err
			}
			lastErr = err
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case !isRetryableHTTPStatus(resp.StatusCode):
			return resp, nil
		default:
			lastResp = resp
			lastErr = NewHTTPError(resp.StatusCode, resp.Status)
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		if lastResp != nil {
			lastResp.Body.Close()
			lastResp = nil
		}

		if err := sleep(ctx, calculateDelay(config, attempt)); err != nil {
			return nil, err
		}
	}

	return lastResp, lastErr
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// HTTPError records the transient status that exhausted the retry
// budget.
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError wraps a status line as an HTTPError.
func NewHTTPError(statusCode int, status string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Status:     status,
		Message:    status,
	}
}
