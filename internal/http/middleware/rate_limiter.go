package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"gateway-server/internal/auth"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRetryAfter         = "Retry-After"

	msgRateLimitExceeded = "rate limit exceeded"

	// defaultLimiterIdleTTL is how long an unused bucket is kept.
	defaultLimiterIdleTTL = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// RateLimiter implements token bucket rate limiting per identity.
// Buckets idle for longer than the idle TTL are evicted lazily.
type RateLimiter struct {
	limiters  sync.Map // key -> *limiterEntry
	rate      rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep atomic.Int64
	now       func() time.Time
}

// NewRateLimiter creates a new rate limiter. A non-positive
// requestsPerSecond disables limiting. A non-positive burst defaults to
// ceil(requestsPerSecond), at least 1.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if requestsPerSecond > 0 && burst <= 0 {
		burst = max(1, int(math.Ceil(requestsPerSecond)))
	}
	rl := &RateLimiter{
		rate:    rate.Limit(requestsPerSecond),
		burst:   burst,
		idleTTL: defaultLimiterIdleTTL,
		now:     time.Now,
	}
	rl.lastSweep.Store(rl.now().UnixNano())
	return rl
}

func (rl *RateLimiter) enabled() bool {
	return rl.rate > 0
}

// getLimiter gets or creates a rate limiter for the given key
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	now := rl.now().UnixNano()
	rl.maybeSweep(now)

	v, ok := rl.limiters.Load(key)
	if !ok {
		v, _ = rl.limiters.LoadOrStore(key, &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)})
	}
	entry := v.(*limiterEntry)
	entry.lastSeen.Store(now)
	return entry.limiter
}

// maybeSweep drops idle buckets at most once per idle TTL.
func (rl *RateLimiter) maybeSweep(now int64) {
	last := rl.lastSweep.Load()
	if now-last < int64(rl.idleTTL) || !rl.lastSweep.CompareAndSwap(last, now) {
		return
	}
	cutoff := now - int64(rl.idleTTL)
	rl.limiters.Range(func(k, v any) bool {
		if v.(*limiterEntry).lastSeen.Load() < cutoff {
			rl.limiters.Delete(k)
		}
		return true
	})
}

// size reports the number of tracked buckets.
func (rl *RateLimiter) size() int {
	n := 0
	rl.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Allow checks if a request should be allowed for the given key
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.enabled() {
		return true
	}
	return rl.getLimiter(key).Allow()
}

// Key identifies the caller: the verified account when the auth filter
// resolved one, else the client IP.
func Key(c echo.Context) string {
	if acct, ok := auth.GetAccount(c); ok {
		return "account:" + acct.IDString()
	}
	return "ip:" + c.RealIP()
}

// Middleware returns an Echo middleware function for rate limiting
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.enabled() {
				return next(c)
			}

			limiter := rl.getLimiter(Key(c))
			header := c.Response().Header()

			if !limiter.Allow() {
				header.Set(headerRateLimitLimit, strconv.Itoa(rl.burst))
				header.Set(headerRateLimitRemaining, "0")
				header.Set(headerRetryAfter, "1")

				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": msgRateLimitExceeded,
				})
			}

			header.Set(headerRateLimitLimit, strconv.Itoa(rl.burst))
			header.Set(headerRateLimitRemaining, strconv.Itoa(int(limiter.Tokens())))

			return next(c)
		}
	}
}
