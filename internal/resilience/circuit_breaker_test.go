package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newTestBreaker() *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  20 * time.Millisecond,
		SuccessThreshold: 2,
	})
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := newTestBreaker()

	for i := 0; i < 3; i++ {
		require.Equal(t, StateClosed, cb.State())
		err := cb.Call(func() error { return errBoom })
		assert.ErrorIs(t, err, errBoom)
	}

	assert.Equal(t, StateOpen, cb.State())

	// While open, the protected function must not run.
	invoked := false
	err := cb.Call(func() error {
		invoked = true
		return nil
	})

	var cbErr *CircuitBreakerError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, StateOpen, cbErr.State)
	assert.False(t, invoked)
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker()

	require.NoError(t, cb.Call(func() error { return nil }))
	assert.ErrorIs(t, cb.Call(func() error { return errBoom }), errBoom)
	assert.ErrorIs(t, cb.Call(func() error { return errBoom }), errBoom)
	require.NoError(t, cb.Call(func() error { return nil }))

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Failures())
}

func TestCircuitBreakerClosesAfterRecoveryProbes(t *testing.T) {
	cb := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.Call(func() error { return errBoom })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(25 * time.Millisecond)

	// First probe transitions to half-open; two successes close it.
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.Call(func() error { return errBoom })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(25 * time.Millisecond)

	// A single failed probe trips the circuit again.
	assert.ErrorIs(t, cb.Call(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	var cbErr *CircuitBreakerError
	require.ErrorAs(t, cb.Call(func() error { return nil }), &cbErr)
}

func TestCircuitBreakerReset(t *testing.T) {
	cb := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.Call(func() error { return errBoom })
	}
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Failures())
	require.NoError(t, cb.Call(func() error { return nil }))
}

func TestCircuitBreakerStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half_open", StateHalfOpen.String())
	assert.Equal(t, "unknown", CircuitBreakerState(42).String())
}
