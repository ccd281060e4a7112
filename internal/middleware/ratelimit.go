package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/juju/ratelimit"
)

// LoginLimiter holds one token bucket per client IP so a brute-force
// attempt against one address cannot lock out the whole pharmacy.
type LoginLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucketEntry
	interval time.Duration
	capacity int64
}

type bucketEntry struct {
	bucket   *ratelimit.Bucket
	lastSeen time.Time
}

// NewLoginLimiter allows capacity requests per IP, refilling one token per
// interval.
func NewLoginLimiter(interval time.Duration, capacity int64) *LoginLimiter {
	return &LoginLimiter{
		buckets:  make(map[string]*bucketEntry),
		interval: interval,
		capacity: capacity,
	}
}

func (l *LoginLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.buckets[key]
	if !ok {
		e = &bucketEntry{bucket: ratelimit.NewBucket(l.interval, l.capacity)}
		l.buckets[key] = e
	}
	e.lastSeen = time.Now()
	return e.bucket.TakeAvailable(1) == 1
}

// Cleanup drops buckets idle for longer than maxIdle.
func (l *LoginLimiter) Cleanup(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	for key, e := range l.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Limit rejects requests from IPs that have drained their bucket.
func (l *LoginLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(RealIP(r)) {
			writeJSONError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
