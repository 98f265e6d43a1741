package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5)
	defer rl.Stop()

	user := uuid.New()
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow(user), "request %d within burst", i+1)
	}
	assert.False(t, rl.Allow(user))
}

func TestRateLimiter_BucketsArePerUser(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	a, b := uuid.New(), uuid.New()
	for i := 0; i < 3; i++ {
		require.True(t, rl.Allow(a))
	}
	require.False(t, rl.Allow(a))

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(b), "other user request %d", i+1)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiterWithConfig(0, -1)
	defer rl.Stop()

	assert.Equal(t, DefaultRateLimit, rl.requestsPerMinute)
	assert.Equal(t, DefaultBurstSize, rl.burstSize)
}

func TestRateLimiter_RetryAfterFollowsRefillRate(t *testing.T) {
	rl := NewRateLimiterWithConfig(6, 1) // one token every 10s
	defer rl.Stop()

	user := uuid.New()
	now := time.Now()
	require.True(t, rl.charge(user, now).allowed)

	v := rl.charge(user, now)
	assert.False(t, v.allowed)
	assert.Equal(t, 0, v.remaining)
	assert.InDelta(t, 10.0, v.retryAfter.Seconds(), 0.1)

	assert.True(t, rl.charge(user, now.Add(11*time.Second)).allowed)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter()
	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}

func TestRateLimitMiddleware_SkipsAnonymous(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 1)
	defer rl.Stop()

	mw := RateLimitMiddleware(rl)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

		require.NoError(t, mw(okHandler)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitMiddleware_RateLimitsUser(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 2)
	defer rl.Stop()

	user := uuid.New()
	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/investments/1/buy", nil)
		req = req.WithContext(WithUserID(req.Context(), user))
		rec := httptest.NewRecorder()
		require.NoError(t, RateLimitMiddleware(rl)(okHandler)(e.NewContext(req, rec)))
		return rec
	}

	for i := 0; i < 2; i++ {
		rec := call()
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(1-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := call()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retry, 1)
	assert.Contains(t, rec.Body.String(), errorTypeRateLimit)
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
