//go:build integration

package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/platform/middleware"
	"signet/pkg/testutil/containers"
)

func TestRedisLimiter_FixedWindow(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	limiter := middleware.NewRedisLimiter(rc.Client)

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "ratelimit:sign:203.0.113.9", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "hit %d should be within the limit", i+1)
	}

	allowed, err := limiter.Allow(ctx, "ratelimit:sign:203.0.113.9", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// A different client keeps its own counter.
	allowed, err = limiter.Allow(ctx, "ratelimit:sign:198.51.100.7", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisLimiter_WindowExpires(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	limiter := middleware.NewRedisLimiter(rc.Client)

	allowed, err := limiter.Allow(ctx, "ratelimit:sign:expiry", 1, time.Second)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "ratelimit:sign:expiry", 1, time.Second)
	require.NoError(t, err)
	require.False(t, allowed)

	ttl, err := rc.Client.TTL(ctx, "ratelimit:sign:expiry").Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	time.Sleep(1100 * time.Millisecond)

	allowed, err = limiter.Allow(ctx, "ratelimit:sign:expiry", 1, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
}
