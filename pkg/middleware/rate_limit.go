package middleware

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/gogotex/backend/go-users/pkg/metrics"
	"golang.org/x/time/rate"
)

// limiterIdle is how long a client's bucket may go unused before it is dropped.
const limiterIdle = 3 * time.Minute

type limiterEntry struct {
	lim  *rate.Limiter
	seen atomic.Int64 // unix nanos of the last request
}

// limiterStore holds one token bucket per client key. Buckets idle for longer
// than idle are swept, at most once per idle period, during get.
type limiterStore struct {
	m         sync.Map // map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep atomic.Int64
}

func newLimiterStore(rps float64, burst int, idle time.Duration) *limiterStore {
	s := &limiterStore{rps: rate.Limit(rps), burst: burst, idle: idle, now: time.Now}
	s.lastSweep.Store(s.now().UnixNano())
	return s
}

// get returns (and lazily creates) the limiter for key
func (s *limiterStore) get(key string) *rate.Limiter {
	now := s.now().UnixNano()
	s.sweep(now)
	v, ok := s.m.Load(key)
	if !ok {
		v, _ = s.m.LoadOrStore(key, &limiterEntry{lim: rate.NewLimiter(s.rps, s.burst)})
	}
	e := v.(*limiterEntry)
	e.seen.Store(now)
	return e.lim
}

func (s *limiterStore) sweep(now int64) {
	last := s.lastSweep.Load()
	if now-last < int64(s.idle) || !s.lastSweep.CompareAndSwap(last, now) {
		return
	}
	cutoff := now - int64(s.idle)
	s.m.Range(func(k, v interface{}) bool {
		if v.(*limiterEntry).seen.Load() < cutoff {
			s.m.Delete(k)
		}
		return true
	})
}

// clientKey identifies the caller by IP. The users API is unauthenticated.
func clientKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket limit per client IP.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	store := newLimiterStore(rps, burst, limiterIdle)
	return func(c *gin.Context) {
		if !store.get(clientKey(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
