package circuitbreaker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(&Config{Name: "test", MaxFailures: 3, Cooldown: time.Minute})
	ctx := context.Background()

	failing := func(ctx context.Context) error { return fmt.Errorf("sink down") }

	for i := 0; i < 3; i++ {
		require.Error(t, cb.Execute(ctx, failing))
	}
	assert.Equal(t, StateOpen, cb.CurrentState())

	// While open, calls are rejected without executing
	executed := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		executed = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, executed)
}

func TestBreakerClosesAfterCooldownProbe(t *testing.T) {
	cb := New(&Config{Name: "test", MaxFailures: 1, Cooldown: 10 * time.Millisecond})
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, func(ctx context.Context) error { return fmt.Errorf("boom") }))
	assert.Equal(t, StateOpen, cb.CurrentState())

	time.Sleep(20 * time.Millisecond)

	// Probe succeeds, circuit closes
	require.NoError(t, cb.Execute(ctx, func(ctx context.Context) error { return nil }))
	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	cb := New(&Config{Name: "test", MaxFailures: 1, Cooldown: 10 * time.Millisecond})
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, func(ctx context.Context) error { return fmt.Errorf("boom") }))
	time.Sleep(20 * time.Millisecond)

	require.Error(t, cb.Execute(ctx, func(ctx context.Context) error { return fmt.Errorf("still down") }))
	assert.Equal(t, StateOpen, cb.CurrentState())

	err := cb.Execute(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(&Config{Name: "test", MaxFailures: 2, Cooldown: time.Minute})
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, func(ctx context.Context) error { return fmt.Errorf("one") }))
	require.NoError(t, cb.Execute(ctx, func(ctx context.Context) error { return nil }))
	require.Error(t, cb.Execute(ctx, func(ctx context.Context) error { return fmt.Errorf("two") }))

	assert.Equal(t, StateClosed, cb.CurrentState())
}
