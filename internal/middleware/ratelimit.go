package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/omrgrade/omr-backend/internal/response"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window per-IP limiter backed by Redis so that every
// server instance shares the same counters.
type RateLimiter struct {
	rdb      *redis.Client
	rate     int64         // Requests per window
	interval time.Duration // Window length
	keyFn    func(ip string) string
}

// NewRateLimiter creates a RateLimiter (e.g., 10 requests per minute).
func NewRateLimiter(rdb *redis.Client, rate int, interval time.Duration, keyFn func(ip string) string) *RateLimiter {
	return &RateLimiter{
		rdb:      rdb,
		rate:     int64(rate),
		interval: interval,
		keyFn:    keyFn,
	}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
// Redis errors let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := rl.keyFn(c.ClientIP())

		pipe := rl.rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, rl.interval)
		if _, err := pipe.Exec(ctx); err != nil {
			c.Next()
			return
		}

		if incr.Val() > rl.rate {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}
