package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_Allow(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, _ := limiter.Allow("10.0.0.1")
		assert.True(t, ok, "burst request %d", i)
	}

	ok, wait := limiter.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.InDelta(t, time.Second.Seconds(), wait.Seconds(), 0.01)

	ok, _ = limiter.Allow("10.0.0.2")
	assert.True(t, ok, "buckets are per ip")

	now = now.Add(time.Second)
	ok, _ = limiter.Allow("10.0.0.1")
	assert.True(t, ok, "a token refills after one second")
}

func TestIPRateLimiter_RejectedRequestsDoNotConsume(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ok, _ := limiter.Allow("10.0.0.1")
	assert.True(t, ok)
	for i := 0; i < 5; i++ {
		ok, _ = limiter.Allow("10.0.0.1")
		assert.False(t, ok)
	}

	now = now.Add(time.Second)
	ok, _ = limiter.Allow("10.0.0.1")
	assert.True(t, ok)
}

func TestIPRateLimiter_SweepsIdleBuckets(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	limiter.lastSweep = now

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")
	assert.Equal(t, 2, limiter.size())

	now = now.Add(limiterIdleTTL + time.Minute)
	limiter.Allow("10.0.0.3")
	assert.Equal(t, 1, limiter.size())
}

func TestNewIPRateLimiter_Defaults(t *testing.T) {
	limiter := NewIPRateLimiter(0, 0)
	assert.EqualValues(t, 1, limiter.limit)
	assert.Equal(t, 10, limiter.burst)
}
