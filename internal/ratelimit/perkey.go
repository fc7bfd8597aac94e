package ratelimit

import (
	"sync"
	"time"
)

// PerKeyLimiterConfig configures a PerKeyLimiter.
type PerKeyLimiterConfig struct {
	// MaxTokens is the burst capacity of each key's bucket.
	MaxTokens float64
	// RefillRate is tokens credited per second.
	RefillRate float64
	// CleanupPeriod is how often idle buckets are swept. Defaults to 5m.
	CleanupPeriod time.Duration
}

// PerKeyLimiter keeps an independent token bucket per key (the chat API keys
// by session ID). Buckets that refill completely are swept so the map stays
// bounded by recent activity, not by total sessions ever seen.
type PerKeyLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*Limiter
	cfg     PerKeyLimiterConfig
	onDrop  func()

	done     chan struct{}
	stopOnce sync.Once
}

// NewPerKeyLimiter creates the limiter and starts its sweep goroutine. Call
// Stop to release it.
func NewPerKeyLimiter(cfg PerKeyLimiterConfig) *PerKeyLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}

	p := &PerKeyLimiter{
		buckets: make(map[string]*Limiter),
		cfg:     cfg,
		done:    make(chan struct{}),
	}
	go p.sweepLoop()
	return p
}

// OnDrop registers a callback for every denied request. Set it before the
// limiter sees traffic; it is read without synchronization afterwards.
func (p *PerKeyLimiter) OnDrop(fn func()) {
	p.onDrop = fn
}

// Allow consumes a token from key's bucket, creating the bucket on first
// sight. The empty key bypasses limiting.
func (p *PerKeyLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	allowed := p.bucket(key).Allow()
	if !allowed && p.onDrop != nil {
		p.onDrop()
	}
	return allowed
}

func (p *PerKeyLimiter) bucket(key string) *Limiter {
	p.mu.RLock()
	b, ok := p.buckets[key]
	p.mu.RUnlock()
	if ok {
		return b
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Another request may have created it between the locks.
	if b, ok = p.buckets[key]; !ok {
		b = New(p.cfg.MaxTokens, p.cfg.RefillRate)
		p.buckets[key] = b
	}
	return b
}

// ActiveCount reports how many keys currently hold a bucket.
func (p *PerKeyLimiter) ActiveCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.buckets)
}

// sweepLoop drops buckets that have refilled to capacity, i.e. keys with no
// recent traffic.
func (p *PerKeyLimiter) sweepLoop() {
	ticker := time.NewTicker(p.cfg.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.mu.Lock()
			for key, b := range p.buckets {
				if b.IsFull() {
					delete(p.buckets, key)
				}
			}
			p.mu.Unlock()
		}
	}
}

// Stop ends the sweep goroutine. Safe to call more than once.
func (p *PerKeyLimiter) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}
