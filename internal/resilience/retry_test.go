package resilience

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/abhigyan2003/github-repo-ai-agent/internal/errors"
)

func fastConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	cfg.JitterEnabled = false
	return cfg
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	var calls int32

	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return apperrors.NewNetworkError("flaky", nil)
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	var calls int32
	fatal := apperrors.NewInvalidRepoURLError("junk")

	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		atomic.AddInt32(&calls, 1)
		return fatal
	})

	assert.Equal(t, fatal, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryExhaustsAttempts(t *testing.T) {
	var calls int32

	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		atomic.AddInt32(&calls, 1)
		return apperrors.NewNetworkError("still down", nil)
	})

	assert.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithConfig(ctx, fastConfig(), func() error {
		return apperrors.NewNetworkError("down", nil)
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryHTTPRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := RetryHTTP(context.Background(), fastConfig(), func() (*http.Response, error) {
		return http.Get(srv.URL)
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetryHTTPReturnsClientErrorsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := RetryHTTP(context.Background(), fastConfig(), func() (*http.Response, error) {
		return http.Get(srv.URL)
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, isRetryableHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 422} {
		assert.False(t, isRetryableHTTPStatus(code), "status %d", code)
	}
}

func TestCalculateDelayBackoffAndCap(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}

	assert.Equal(t, 100*time.Millisecond, calculateDelay(cfg, 0))
	assert.Equal(t, 200*time.Millisecond, calculateDelay(cfg, 1))
	assert.Equal(t, 400*time.Millisecond, calculateDelay(cfg, 2))
	assert.Equal(t, time.Second, calculateDelay(cfg, 10))
}

func TestRetryWrapsPlainErrorsViaClassifier(t *testing.T) {
	var calls int32

	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		atomic.AddInt32(&calls, 1)
		return errors.New("dial tcp: connection refused")
	})

	assert.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
