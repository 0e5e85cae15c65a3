package router

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPRateLimiter enforces a per-client-IP request allowance: at most max
// requests per window, refilled continuously. Limiters for idle clients are
// evicted so the map does not grow without bound.
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client

	limit rate.Limit
	burst int

	window time.Duration
	max    int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a limiter allowing max requests per window for
// each client IP.
func NewIPRateLimiter(window time.Duration, max int) *IPRateLimiter {
	return &IPRateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(float64(max) / window.Seconds()),
		burst:   max,
		window:  window,
		max:     max,
	}
}

// Allow reports whether the client identified by ip may proceed.
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()

	return c.limiter.Allow()
}

// Message is the human-readable rejection text.
func (l *IPRateLimiter) Message() string {
	return fmt.Sprintf("Too many requests. Limit is %d per %s; try again later.", l.max, l.window)
}

// StartEviction removes limiters idle for longer than twice the window. It
// blocks until stop is closed, so run it in its own goroutine.
func (l *IPRateLimiter) StartEviction(stop <-chan struct{}) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-stop:
			return
		}
	}
}

func (l *IPRateLimiter) evictIdle() {
	cutoff := time.Now().Add(-2 * l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}
