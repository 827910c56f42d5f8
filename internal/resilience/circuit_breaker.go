// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// BreakerState is the state of a circuit breaker
type BreakerState int

const (
	StateClosed   BreakerState = iota // Calls pass through
	StateOpen                         // Calls fail fast
	StateHalfOpen                     // Probing whether the collaborator recovered
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int           // Consecutive failures before opening
	SuccessThreshold int           // Half-open successes before closing
	Timeout          time.Duration // Open period before a half-open probe
	MaxRequests      int           // Concurrent probes allowed while half-open
	IsFailure        func(error) bool
	OnStateChange    func(name string, from, to BreakerState)
	now              func() time.Time
}

// DefaultCircuitBreakerConfig counts only retryable errors as failures, so a
// rejected payload never trips the breaker.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
		IsFailure:        IsRetryable,
	}
}

// CircuitBreaker guards calls to an unreliable collaborator
type CircuitBreaker struct {
	config CircuitBreakerConfig
	mu     sync.Mutex

	state           BreakerState
	failureCount    int
	successCount    int
	inFlight        int
	lastFailureTime time.Time
}

// NewCircuitBreaker creates a closed circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.IsFailure == nil {
		config.IsFailure = IsRetryable
	}
	if config.now == nil {
		config.now = time.Now
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = 1
	}
	return &CircuitBreaker{config: config, state: StateClosed}
}

// BreakerOpenError is returned when the breaker rejects a call
type BreakerOpenError struct {
	Name  string
	State BreakerState
	Since time.Duration
}

func (e *BreakerOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is %s (last failure %v ago)", e.Name, e.State, e.Since.Round(time.Second))
}

// IsBreakerOpen reports whether err was produced by a rejecting breaker
func IsBreakerOpen(err error) bool {
	var open *BreakerOpenError
	return errors.As(err, &open)
}

// Execute runs fn with circuit breaker protection
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.afterRequest(err)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.config.now()
	switch cb.state {
	case StateOpen:
		if now.Sub(cb.lastFailureTime) < cb.config.Timeout {
			return &BreakerOpenError{Name: cb.config.Name, State: cb.state, Since: now.Sub(cb.lastFailureTime)}
		}
		cb.setState(StateHalfOpen)
		cb.inFlight = 0
		cb.successCount = 0
		fallthrough
	case StateHalfOpen:
		if cb.inFlight >= cb.config.MaxRequests {
			return &BreakerOpenError{Name: cb.config.Name, State: cb.state, Since: now.Sub(cb.lastFailureTime)}
		}
		cb.inFlight++
	}
	return nil
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.inFlight > 0 {
		cb.inFlight--
	}

	if err != nil && cb.config.IsFailure(err) {
		cb.failureCount++
		cb.lastFailureTime = cb.config.now()
		if cb.state == StateHalfOpen || cb.failureCount >= cb.config.FailureThreshold {
			cb.setState(StateOpen)
		}
		return
	}

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.setState(StateClosed)
			cb.failureCount = 0
			cb.successCount = 0
		}
	}
}

func (cb *CircuitBreaker) setState(next BreakerState) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, prev, next)
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the breaker and clears its counters
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
	cb.failureCount = 0
	cb.successCount = 0
	cb.inFlight = 0
	cb.lastFailureTime = time.Time{}
}
