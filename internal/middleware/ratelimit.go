package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-udp-reservation/internal/ratelimit"
)

// RateLimit throttles gateway requests with the same Redis token bucket
// that guards datagram admission.  A Redis failure lets the request
// through.
func RateLimit(bucket *ratelimit.TokenBucket) echo.MiddlewareFunc {
	if bucket == nil || !bucket.Enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	cfg := bucket.Config()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(bucket, cfg.KeyStrategy, c)
			d, err := bucket.Allow(c.Request().Context(), key)
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))

			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 0 {
					secs = 0
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					c.Logger().Infof("[ratelimit] block key=%s retry=%s", key, d.RetryAfter)
				}
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			return next(c)
		}
	}
}

// rateKey builds "<prefix>:http:ip:<ip>" or, for the ip_route strategy,
// appends the route so each endpoint gets its own budget.
func rateKey(b *ratelimit.TokenBucket, strategy string, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	parts := []string{"http", "ip", ip}
	if strings.EqualFold(strategy, "ip_route") {
		parts = append(parts, "route", c.Request().Method+" "+c.Path())
	}
	return b.Key(parts...)
}
