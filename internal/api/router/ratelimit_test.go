package router

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_AllowsUpToMax(t *testing.T) {
	// A long window makes refill negligible during the test.
	l := NewIPRateLimiter(time.Hour, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d should be allowed", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1"), "request over the limit should be rejected")
}

func TestIPRateLimiter_ClientsAreIndependent(t *testing.T) {
	l := NewIPRateLimiter(time.Hour, 2)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// A different client still has its full allowance.
	assert.True(t, l.Allow("10.0.0.2"))
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestIPRateLimiter_Message(t *testing.T) {
	l := NewIPRateLimiter(15*time.Minute, 10)
	msg := l.Message()

	assert.Contains(t, msg, "10")
	assert.Contains(t, msg, "15m")
}

func TestIPRateLimiter_EvictIdle(t *testing.T) {
	l := NewIPRateLimiter(time.Minute, 1)

	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("10.0.0.%d", i))
	}

	l.mu.Lock()
	for _, c := range l.clients {
		c.lastSeen = time.Now().Add(-time.Hour)
	}
	l.mu.Unlock()

	l.evictIdle()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.clients)
}
