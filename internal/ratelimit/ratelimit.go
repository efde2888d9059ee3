package ratelimit

import (
	"sync/atomic"
	"time"
)

// Limiter is a lock-free token bucket. Tokens refill at one per interval
// up to the burst size; Allow spends one token when available.
type Limiter struct {
	tokens   int32
	burst    int32
	interval time.Duration
	lastTick int64
}

func New(burst int32, interval time.Duration) *Limiter {
	return &Limiter{
		tokens:   burst,
		burst:    burst,
		interval: interval,
		lastTick: time.Now().UnixNano(),
	}
}

// Allow reports whether one more event fits the budget right now.
func (l *Limiter) Allow() bool {
	now := time.Now().UnixNano()
	last := atomic.LoadInt64(&l.lastTick)

	generated := int32((now - last) / int64(l.interval))
	if generated > 0 && atomic.CompareAndSwapInt64(&l.lastTick, last, now) {
		balance := atomic.LoadInt32(&l.tokens) + generated
		if balance > l.burst {
			balance = l.burst
		}
		atomic.StoreInt32(&l.tokens, balance)
	}

	for {
		current := atomic.LoadInt32(&l.tokens)
		if current <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&l.tokens, current, current-1) {
			return true
		}
	}
}
