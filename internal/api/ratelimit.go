package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inhausmakers/avatar-manager/internal/redis"
)

// RateLimitMiddleware enforces a fixed-window limit per route, keyed by user
// ID when authenticated and by client IP otherwise. Standard X-RateLimit-*
// headers accompany every response. A redis outage fails open: slow clients
// beat no clients.
func RateLimitMiddleware(redisClient *redis.Client, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, count, ttlMs, err := redisClient.CheckRateLimit(
				c.Request().Context(), rateLimitKey(c), limit, window)
			if err != nil {
				return next(c)
			}

			remaining := max(int64(limit)-count, 0)
			resetAt := time.Now().Add(time.Duration(ttlMs) * time.Millisecond).Unix()

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))

			if !allowed {
				// Retry-After rounds up to whole seconds.
				h.Set("Retry-After", strconv.FormatInt((ttlMs+999)/1000, 10))
				return errorJSON(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, please try again later")
			}

			return next(c)
		}
	}
}

func rateLimitKey(c echo.Context) string {
	if uid, ok := c.Get("user_id").(int64); ok {
		return fmt.Sprintf("rl:user:%d:%s", uid, c.Path())
	}
	return fmt.Sprintf("rl:ip:%s:%s", c.RealIP(), c.Path())
}
