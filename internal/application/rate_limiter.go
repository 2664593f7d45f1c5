package application

import (
	"sync"
	"time"

	"github.com/bnema/annoirc/internal/ports"
	"golang.org/x/time/rate"
)

// KeyedLimiter is a set of independent token buckets, one per key, each
// allowing quota events per window. Buckets are created on first use.
type KeyedLimiter struct {
	mu      sync.Mutex
	clock   ports.Clock
	quota   int
	window  time.Duration
	buckets map[string]*rate.Limiter
}

func NewKeyedLimiter(quota int, window time.Duration, clock ports.Clock) *KeyedLimiter {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if quota < 1 {
		quota = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &KeyedLimiter{
		clock:   clock,
		quota:   quota,
		window:  window,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow takes a token from key's bucket. It never waits.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(rate.Every(l.window/time.Duration(l.quota)), l.quota)
		l.buckets[key] = bucket
	}
	return bucket.AllowN(l.clock.Now(), 1)
}

// SetQuota changes the limits of existing and future buckets.
func (l *KeyedLimiter) SetQuota(quota int, window time.Duration) {
	if quota < 1 || window <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if quota == l.quota && window == l.window {
		return
	}
	l.quota = quota
	l.window = window

	now := l.clock.Now()
	for _, bucket := range l.buckets {
		bucket.SetLimitAt(now, rate.Every(window/time.Duration(quota)))
		bucket.SetBurstAt(now, quota)
	}
}
