package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per client kept in Redis.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{redis: redisClient, limit: limit, window: window}
}

func (r *RateLimiter) Allow(ctx context.Context, scope, identifier string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("ratelimit:%s:%s", scope, identifier)

	// INCR and EXPIRE NX go out in one transaction, so a counter never
	// exists without a TTL.
	var incr *redis.IntCmd
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, r.window)
		return nil
	})
	if err != nil {
		return false, err
	}
	count := incr.Val()

	return count <= int64(r.limit), nil
}

// TicketRateLimit limits ticket issuance per client IP. When Redis is
// unreachable requests are let through.
func (r *RateLimiter) TicketRateLimit() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		allowed, err := r.Allow(e.Request.Context(), "tickets", e.RemoteIP())
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err)
			return e.Next()
		}
		if !allowed {
			return e.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}
		return e.Next()
	}
}

func AntiBotMiddleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
			return e.JSON(http.StatusForbidden, map[string]string{
				"error": "Access denied",
			})
		}
		return e.Next()
	}
}

func isSuspiciousUserAgent(ua string) bool {
	ua = strings.ToLower(ua)
	for _, pattern := range []string{"bot", "crawler", "spider", "scraper"} {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
