package security

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis  *redis.Client
	window time.Duration
	budget int
}

func NewRateLimiter(redisClient *redis.Client, window time.Duration, budget int) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if budget <= 0 {
		budget = 60
	}
	return &RateLimiter{redis: redisClient, window: window, budget: budget}
}

// LedgerRateLimit is a fixed-window limiter over the mutating ledger routes,
// keyed by authenticated user id with IP fallback. Redis being down never
// blocks the request; the ledger's own checks stay authoritative.
func (r *RateLimiter) LedgerRateLimit() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		identity := e.RealIP()
		if e.Auth != nil {
			identity = fmt.Sprintf("user:%s", e.Auth.Id)
		}

		key := fmt.Sprintf("ratelimit:ledger:%s", identity)
		ctx := e.Request.Context()

		count, err := r.redis.Incr(ctx, key).Result()
		if err == nil {
			if count == 1 {
				r.redis.Expire(ctx, key, r.window)
			}
			if count > int64(r.budget) {
				return e.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "Rate limit exceeded. Please try again later.",
				})
			}
		}

		return e.Next()
	}
}
