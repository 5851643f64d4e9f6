package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"
)

func TestRateLimiter_SweepStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	rl := NewRateLimiter(ctx, rate.Every(time.Second), 1, 10*time.Millisecond)
	assert.True(t, rl.GetLimiter("203.0.113.9").Allow())
	cancel()
}

func TestRateLimiter_SweepEvictsIdleClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, rate.Every(time.Hour), 1, 20*time.Millisecond)
	first := rl.GetLimiter("203.0.113.9")
	assert.True(t, first.Allow())
	assert.False(t, first.Allow())

	assert.Eventually(t, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		return len(rl.ips) == 0
	}, time.Second, 10*time.Millisecond)

	// An evicted client starts with a fresh bucket.
	assert.True(t, rl.GetLimiter("203.0.113.9").Allow())
}
