package resilience

import (
	"sync/atomic"
	"time"
)

// CircuitBreakerState represents the state of the circuit breaker
type CircuitBreakerState int32

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

// String returns the lowercase state name.
func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold"` // Consecutive failures before opening
	RecoveryTimeout  time.Duration `json:"recovery_timeout"`  // Time to wait before attempting recovery
	SuccessThreshold int           `json:"success_threshold"` // Successes needed to close again
}

// CircuitBreaker guards an external dependency: after too many
// consecutive failures, calls fail fast until a recovery probe succeeds.
type CircuitBreaker struct {
	config      CircuitBreakerConfig
	state       int32
	failures    int32
	successes   int32
	nextAttempt int64 // unix nanos; earliest time an open circuit admits a probe
}

// NewCircuitBreaker creates a new circuit breaker with default configuration
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 3
	}

	return &CircuitBreaker{
		config: config,
		state:  int32(StateClosed),
	}
}

// Call executes fn with circuit breaker protection. While the circuit is
// open, fn is not invoked and a CircuitBreakerError is returned instead.
func (cb *CircuitBreaker) Call(fn func() error) error {
	state := CircuitBreakerState(atomic.LoadInt32(&cb.state))

	if state == StateOpen {
		if time.Now().UnixNano() < atomic.LoadInt64(&cb.nextAttempt) {
			return NewCircuitBreakerError("circuit breaker is open", state)
		}
		atomic.StoreInt32(&cb.state, int32(StateHalfOpen))
		atomic.StoreInt32(&cb.successes, 0)
	}

	if err := fn(); err != nil {
		cb.onFailure()
		return err
	}

	cb.onSuccess()
	return nil
}

// onFailure handles failure events. Any failure during the half-open
// probe re-opens the circuit immediately.
func (cb *CircuitBreaker) onFailure() {
	state := CircuitBreakerState(atomic.LoadInt32(&cb.state))
	failures := atomic.AddInt32(&cb.failures, 1)
	atomic.StoreInt32(&cb.successes, 0)

	if state == StateHalfOpen || failures >= int32(cb.config.FailureThreshold) {
		cb.trip()
	}
}

// onSuccess handles success events
func (cb *CircuitBreaker) onSuccess() {
	atomic.StoreInt32(&cb.failures, 0)

	if CircuitBreakerState(atomic.LoadInt32(&cb.state)) == StateHalfOpen {
		successes := atomic.AddInt32(&cb.successes, 1)
		if successes >= int32(cb.config.SuccessThreshold) {
			atomic.StoreInt32(&cb.state, int32(StateClosed))
		}
	}
}

// trip opens the circuit and schedules the next recovery probe.
func (cb *CircuitBreaker) trip() {
	atomic.StoreInt64(&cb.nextAttempt, time.Now().Add(cb.config.RecoveryTimeout).UnixNano())
	atomic.StoreInt32(&cb.state, int32(StateOpen))
	atomic.StoreInt32(&cb.failures, 0)
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() CircuitBreakerState {
	return CircuitBreakerState(atomic.LoadInt32(&cb.state))
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	return int(atomic.LoadInt32(&cb.failures))
}

// Reset resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	atomic.StoreInt32(&cb.state, int32(StateClosed))
	atomic.StoreInt32(&cb.failures, 0)
	atomic.StoreInt32(&cb.successes, 0)
	atomic.StoreInt64(&cb.nextAttempt, 0)
}

// CircuitBreakerError represents an error from the circuit breaker
type CircuitBreakerError struct {
	Message string
	State   CircuitBreakerState
}

func (e *CircuitBreakerError) Error() string {
	return e.Message
}

// NewCircuitBreakerError creates a new circuit breaker error
func NewCircuitBreakerError(message string, state CircuitBreakerState) *CircuitBreakerError {
	return &CircuitBreakerError{
		Message: message,
		State:   state,
	}
}
