// Package ratelimit implements a token bucket stored in Redis, so every
// server instance shares the same per-source budget.  The refill and the
// take happen in one Lua script and are therefore atomic.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-udp-reservation/internal/config"
)

var bucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		local until_next = interval_ms - (now_ms - last_refill)
		if until_next < 0 then until_next = 0 end
		retry_after_ms = until_next
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// TokenBucket is safe for concurrent use.  A disabled bucket, or one
// without a Redis client, allows everything.
type TokenBucket struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	now func() time.Time
}

// New returns a bucket configured by cfg.  rdb may be nil.
func New(cfg config.RateLimitConfig, rdb *redis.Client) *TokenBucket {
	return &TokenBucket{cfg: cfg.Normalize(), rdb: rdb, now: time.Now}
}

// Enabled reports whether Allow consults Redis.
func (b *TokenBucket) Enabled() bool { return b.cfg.Enabled && b.rdb != nil }

// Config returns the normalized configuration.
func (b *TokenBucket) Config() config.RateLimitConfig { return b.cfg }

// Key joins parts under the configured prefix, e.g. "rl:udp:10.0.0.1".
func (b *TokenBucket) Key(parts ...string) string {
	return b.cfg.Prefix + ":" + strings.Join(parts, ":")
}

// Allow takes one token from the bucket at key.  On a Redis error the
// error is returned together with an allowing decision so callers can
// fail open.
func (b *TokenBucket) Allow(ctx context.Context, key string) (Decision, error) {
	open := Decision{Allowed: true, Remaining: int64(b.cfg.Capacity)}
	if !b.Enabled() {
		return open, nil
	}
	args := []interface{}{
		b.now().UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		int64(b.cfg.TTL / time.Second),
	}
	vals, err := bucketScript.Run(ctx, b.rdb, []string{key}, args...).Result()
	if err != nil {
		return open, fmt.Errorf("rate limit script for %s: %w", key, err)
	}
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return open, fmt.Errorf("rate limit script for %s: unexpected result %#v", key, vals)
	}
	return Decision{
		Allowed:    asInt64(arr[0]) == 1,
		Remaining:  asInt64(arr[1]),
		RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
