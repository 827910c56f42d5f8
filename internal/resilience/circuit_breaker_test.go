// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	cfg := DefaultCircuitBreakerConfig("efile")
	cfg.FailureThreshold = 2
	cfg.SuccessThreshold = 1
	cfg.Timeout = time.Minute
	cfg.now = clock.now
	return NewCircuitBreaker(cfg)
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)
	failing := func(context.Context) error { return &StatusError{Code: 503} }

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, StateClosed, cb.State())
	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error { called = true; return nil })
	assert.False(t, called)
	assert.True(t, IsBreakerOpen(err))
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)
	failing := func(context.Context) error { return &StatusError{Code: 503} }
	_ = cb.Execute(context.Background(), failing)
	_ = cb.Execute(context.Background(), failing)
	require.Equal(t, StateOpen, cb.State())

	clock.t = clock.t.Add(2 * time.Minute)
	err := cb.Execute(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IgnoresPermanentErrors(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cb := newTestBreaker(clock)
	rejected := errors.New("payload invalid")

	for i := 0; i < 5; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error { return rejected })
		assert.ErrorIs(t, err, rejected)
	}
	assert.Equal(t, StateClosed, cb.State())
}
