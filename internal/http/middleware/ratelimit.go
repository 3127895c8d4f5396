// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a process-local, per-identity token bucket limiter on
// golang.org/x/time/rate. It never writes a response: an empty bucket records
// a 429 fault.WebRequestError and aborts, and RestErrors (mounted earlier in
// the same group) renders it with an empty body.
package middleware

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-rest-errors/internal/fault"
)

// ErrRateLimited is the cause wrapped in the 429 fault.
var ErrRateLimited = errors.New("rate limit exceeded")

const (
	// Buckets unused for bucketTTL are dropped by the sweep that runs every
	// sweepEvery lookups.
	bucketTTL  = 10 * time.Minute
	sweepEvery = 5000

	retryAfterSeconds = "1"
)

// keyFunc selects the identity a bucket belongs to.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys by the "userID" context value set by an auth layer,
// else by client IP. The "user:" and "ip:" prefixes keep the two apart.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if id, _ := c.Value("userID").(string); id != "" {
			return "user:" + id
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per key. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter refills rps tokens per second up to burst. A burst <= 0
// becomes 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    max(burst, 1),
		keyFn:    keyFn,
		visitors: map[string]*visitor{},
		ttl:      bucketTTL,
	}
}

// getVisitor returns the bucket for key, creating it on first use. The idle
// sweep runs before the lookup, so an expired bucket is replaced by a full one.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.cleanupN++; rl.cleanupN >= sweepEvery {
		rl.sweep(now)
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweep requires rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) >= rl.ttl {
			delete(rl.visitors, k)
		}
	}
	rl.cleanupN = 0
}

// Handler enforces the limit. Rejections carry Retry-After: 1.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Header("Retry-After", retryAfterSeconds)
			_ = c.Error(fault.WebRequest(http.StatusTooManyRequests, ErrRateLimited))
			c.Abort()
			return
		}
		c.Next()
	}
}
