// Package ratelimit provides token bucket rate limiting for the chat API.
// A global bucket caps overall throughput and a per-session limiter stops a
// single conversation from starving the rest.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket: capacity tokens at most, refilled continuously
// at rate tokens per second, one token per request. Safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	capacity float64
	rate     float64
	tokens   float64
	last     time.Time
}

// New creates a full bucket with the given burst capacity and refill rate
// in tokens per second.
func New(capacity, rate float64) *Limiter {
	return &Limiter{
		capacity: capacity,
		rate:     rate,
		tokens:   capacity,
		last:     time.Now(),
	}
}

// advance credits tokens for the time elapsed since the last call. Callers
// hold mu.
func (l *Limiter) advance() {
	now := time.Now()
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	if l.tokens > l.capacity {
		l.tokens = l.capacity
	}
	l.last = now
}

// Allow consumes a token if one is available. Never blocks.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// Available reports the current token count.
func (l *Limiter) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	return l.tokens
}

// IsFull reports whether the bucket has fully refilled, meaning the key it
// guards has been idle long enough to forget.
func (l *Limiter) IsFull() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	return l.tokens >= l.capacity
}

// Reset refills the bucket to capacity.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tokens = l.capacity
	l.last = time.Now()
}
