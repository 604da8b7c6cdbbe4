package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripproposal/internal/ratelimit"
)

func TestKeyedLimiter_SameKeySameLimiter(t *testing.T) {
	l := ratelimit.New(ratelimit.Config{RequestsPerSecond: 1, BurstSize: 1})

	assert.Same(t, l.Limiter("a"), l.Limiter("a"))
	assert.NotSame(t, l.Limiter("a"), l.Limiter("b"))
}

func TestKeyedLimiter_DefaultsForZeroConfig(t *testing.T) {
	l := ratelimit.New(ratelimit.Config{})

	assert.Equal(t, ratelimit.DefaultConfig().BurstSize, l.Limiter("x").Burst())
}

func TestKeyedLimiter_KeysAreIndependent(t *testing.T) {
	l := ratelimit.New(ratelimit.Config{RequestsPerSecond: 0.001, BurstSize: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "a"))
	// "a" has spent its only token; "b" still has one.
	require.NoError(t, l.Wait(ctx, "b"))

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "a"))
}

func TestKeyedLimiter_SetLimit(t *testing.T) {
	l := ratelimit.New(ratelimit.DefaultConfig())
	l.SetLimit("slow", 1, 3)

	assert.Equal(t, 3, l.Limiter("slow").Burst())
}
