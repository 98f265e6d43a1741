package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultRateLimit = 30 // per user per minute
	DefaultBurstSize = 5

	sweepEvery = 5 * time.Minute
	idleAfter  = 10 * time.Minute
)

// RateLimiter is a token bucket per user, used to throttle trades
type RateLimiter struct {
	requestsPerMinute int
	burstSize         int
	perSecond         rate.Limit

	mu      sync.Mutex
	buckets map[uuid.UUID]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	*rate.Limiter
	touched time.Time
}

// verdict is the outcome of charging one request to a user's bucket
type verdict struct {
	allowed    bool
	remaining  int
	retryAfter time.Duration
	resetAt    time.Time
}

// NewRateLimiter uses DefaultRateLimit and DefaultBurstSize
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultRateLimit, DefaultBurstSize)
}

// NewRateLimiterWithConfig falls back to the defaults for non-positive values.
// Call Stop to end the background sweep.
func NewRateLimiterWithConfig(requestsPerMinute int, burstSize int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRateLimit
	}
	if burstSize <= 0 {
		burstSize = DefaultBurstSize
	}
	rl := &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		burstSize:         burstSize,
		perSecond:         rate.Limit(float64(requestsPerMinute) / 60),
		buckets:           make(map[uuid.UUID]*bucket),
		stop:              make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow charges one request to userID and reports whether it fits the budget
func (r *RateLimiter) Allow(userID uuid.UUID) bool {
	return r.charge(userID, time.Now()).allowed
}

func (r *RateLimiter) charge(userID uuid.UUID, now time.Time) verdict {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[userID]
	if !ok {
		b = &bucket{Limiter: rate.NewLimiter(r.perSecond, r.burstSize)}
		r.buckets[userID] = b
	}
	b.touched = now

	v := verdict{allowed: b.AllowN(now, 1)}
	tokens := b.TokensAt(now)
	v.remaining = max(0, int(math.Floor(tokens)))
	v.resetAt = now.Add(r.secondsFor(float64(r.burstSize) - tokens))
	if !v.allowed {
		v.retryAfter = r.secondsFor(1 - tokens)
	}
	return v
}

func (r *RateLimiter) secondsFor(tokens float64) time.Duration {
	if tokens <= 0 {
		return 0
	}
	return time.Duration(tokens / float64(r.perSecond) * float64(time.Second))
}

func (r *RateLimiter) sweep() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.mu.Lock()
			for id, b := range r.buckets {
				if now.Sub(b.touched) > idleAfter {
					delete(r.buckets, id)
				}
			}
			r.mu.Unlock()
		}
	}
}

// Stop ends the background sweep. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// RateLimitMiddleware throttles identified users and sets X-RateLimit-* headers.
// Requests without a user pass through, so it must run after UserIdentity.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	limit := strconv.Itoa(rl.requestsPerMinute)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := GetUserID(c)
			if userID == uuid.Nil {
				return next(c)
			}

			v := rl.charge(userID, time.Now())
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(v.resetAt.Unix(), 10))

			if v.allowed {
				return next(c)
			}

			wait := max(1, int(math.Ceil(v.retryAfter.Seconds())))
			h.Set("Retry-After", strconv.Itoa(wait))

			log.Warn().
				Stringer("user_id", userID).
				Str("path", c.Path()).
				Int("retry_after", wait).
				Msg("Trade rate limit exceeded")

			return rateLimitError(c, "Too many requests. Please retry after "+strconv.Itoa(wait)+" seconds.")
		}
	}
}
