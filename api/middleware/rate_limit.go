package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/machinemind/predictive-maintenance/internal/ratelimit"
)

// RateLimit enforces a global per-client request budget.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": limiter.Window().Seconds(),
			})
			return
		}

		c.Next()
	}
}

// EndpointRateLimiter applies stricter limits to selected routes on top
// of the global limit.
type EndpointRateLimiter struct {
	limiters map[string]*ratelimit.Limiter
	mu       sync.RWMutex
}

func NewEndpointRateLimiter() *EndpointRateLimiter {
	return &EndpointRateLimiter{
		limiters: make(map[string]*ratelimit.Limiter),
	}
}

func (erl *EndpointRateLimiter) AddEndpoint(path string, limit int, window time.Duration) {
	erl.mu.Lock()
	defer erl.mu.Unlock()
	erl.limiters[path] = ratelimit.New(limit, window)
}

func (erl *EndpointRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()

		erl.mu.RLock()
		limiter, exists := erl.limiters[path]
		erl.mu.RUnlock()

		if exists {
			key := c.ClientIP()
			if !limiter.Allow(key) {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"error":       "rate limit exceeded for this endpoint",
					"retry_after": limiter.Window().Seconds(),
				})
				return
			}
		}

		c.Next()
	}
}

// AuthRateLimiter slows down credential guessing on login endpoints.
func AuthRateLimiter() gin.HandlerFunc {
	limiter := ratelimit.New(5, time.Minute)

	return func(c *gin.Context) {
		key := c.ClientIP()
		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many authentication attempts, please try again later",
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}
