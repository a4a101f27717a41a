package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per key in fixed windows
type RateLimiter struct {
	limit   int
	window  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	start time.Time
	count int
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether key may make another request. A non-positive limit
// disables limiting.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.start) >= rl.window {
		rl.evict(now)
		rl.buckets[key] = &bucket{start: now, count: 1}
		return true
	}

	if b.count >= rl.limit {
		return false
	}
	b.count++
	return true
}

func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

// evict drops expired buckets; callers hold mu
func (rl *RateLimiter) evict(now time.Time) {
	for key, b := range rl.buckets {
		if now.Sub(b.start) >= rl.window {
			delete(rl.buckets, key)
		}
	}
}

func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": limiter.Window().Seconds(),
			})
			return
		}

		c.Next()
	}
}

// AuthRateLimiter allows 5 login attempts per minute per IP
func AuthRateLimiter() gin.HandlerFunc {
	limiter := NewRateLimiter(5, time.Minute)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many authentication attempts, please try again later",
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}
