package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

// outcome is what a token replays: the result of a create or of a cancel.
// fingerprint identifies the request that produced it.
type outcome struct {
	fingerprint string
	reservation model.Reservation
	cancel      CancelOutcome
	err         error
}

// replay returns a copy of o for a request with fingerprint fp.  A token
// presented with a different request is rejected instead of answered.
func (o outcome) replay(fp string) outcome {
	if o.fingerprint != fp {
		return outcome{fingerprint: fp, err: ErrCorrelationIDReused}
	}
	o.reservation = o.reservation.Clone()
	return o
}

// idempotencyCache remembers the outcome of each write by token.  Entries
// expire after ttl and the cache never holds more than size of them.
// Concurrent calls with the same token share one execution.
type idempotencyCache struct {
	results *expirable.LRU[string, outcome]
	group   singleflight.Group
}

func newIdempotencyCache(size int, ttl time.Duration) *idempotencyCache {
	return &idempotencyCache{results: expirable.NewLRU[string, outcome](size, nil, ttl)}
}

// do returns the cached outcome for token or runs fn once to produce it.
// Context errors are not cached so a later retry can still succeed.
func (c *idempotencyCache) do(token, fp string, fn func() outcome) outcome {
	if res, ok := c.results.Get(token); ok {
		return res.replay(fp)
	}
	v, _, _ := c.group.Do(token, func() (any, error) {
		if res, ok := c.results.Get(token); ok {
			return res, nil
		}
		res := fn()
		res.fingerprint = fp
		if !errors.Is(res.err, context.Canceled) && !errors.Is(res.err, context.DeadlineExceeded) {
			c.results.Add(token, res)
		}
		return res, nil
	})
	return v.(outcome).replay(fp)
}

func (c *idempotencyCache) len() int { return c.results.Len() }

// fingerprint hashes every field that makes two creates the same request.
// Seat order counts; email case does not.
func (r CreateRequest) fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "create|%d|%q|%q|%q", r.ScreeningID, r.CustomerName, strings.ToLower(r.CustomerEmail), r.CustomerPhone)
	for _, p := range r.Seats {
		fmt.Fprintf(h, "|%d:%d", p.Row, p.Number)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func cancelFingerprint(id string) string { return "cancel|" + id }
