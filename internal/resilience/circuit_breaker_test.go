package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_StateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		config        CircuitBreakerConfig
		setup         func(cb *CircuitBreaker)
		expectedState State
	}{
		{
			name:          "stays closed on success",
			config:        CircuitBreakerConfig{MaxFailures: 3, Cooldown: 5 * time.Second},
			setup:         func(cb *CircuitBreaker) { cb.Execute(func() error { return nil }) },
			expectedState: StateClosed,
		},
		{
			name:   "opens after max failures",
			config: CircuitBreakerConfig{MaxFailures: 3, Cooldown: 5 * time.Second},
			setup: func(cb *CircuitBreaker) {
				for i := 0; i < 3; i++ {
					cb.Execute(func() error { return errors.New("boom") })
				}
			},
			expectedState: StateOpen,
		},
		{
			name:   "half-open after cooldown",
			config: CircuitBreakerConfig{MaxFailures: 3, Cooldown: 30 * time.Millisecond},
			setup: func(cb *CircuitBreaker) {
				for i := 0; i < 3; i++ {
					cb.Execute(func() error { return errors.New("boom") })
				}
				time.Sleep(60 * time.Millisecond)
				cb.Execute(func() error { return nil })
			},
			expectedState: StateHalfOpen,
		},
		{
			name:   "closes after probe quota",
			config: CircuitBreakerConfig{MaxFailures: 3, Cooldown: 30 * time.Millisecond, ProbeQuota: 2},
			setup: func(cb *CircuitBreaker) {
				for i := 0; i < 3; i++ {
					cb.Execute(func() error { return errors.New("boom") })
				}
				time.Sleep(60 * time.Millisecond)
				for i := 0; i < 2; i++ {
					cb.Execute(func() error { return nil })
				}
			},
			expectedState: StateClosed,
		},
		{
			name:   "failed probe re-opens",
			config: CircuitBreakerConfig{MaxFailures: 1, Cooldown: 30 * time.Millisecond},
			setup: func(cb *CircuitBreaker) {
				cb.Execute(func() error { return errors.New("boom") })
				time.Sleep(60 * time.Millisecond)
				cb.Execute(func() error { return errors.New("boom") })
			},
			expectedState: StateOpen,
		},
		{
			name:   "reset returns to closed",
			config: CircuitBreakerConfig{MaxFailures: 1, Cooldown: time.Hour},
			setup: func(cb *CircuitBreaker) {
				cb.Execute(func() error { return errors.New("boom") })
				cb.Reset()
			},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker(tt.config)
			tt.setup(cb)
			assert.Equal(t, tt.expectedState, cb.State())
		})
	}
}

func TestCircuitBreaker_OpenFailsFast(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, Cooldown: time.Hour})

	for i := 0; i < 2; i++ {
		cb.Execute(func() error { return errors.New("boom") })
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open circuit must not invoke the wrapped call")
}
