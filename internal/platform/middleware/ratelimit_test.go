package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healingspace/healingspace/internal/platform/auth"
)

func serve(t *testing.T, mw echo.MiddlewareFunc, remoteAddr, user string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/mood/history", nil)
	req.RemoteAddr = remoteAddr
	if user != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), user, auth.RoleUser))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := mw(okHandler)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRateLimit_WithinBurst(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})
	for i := 0; i < 5; i++ {
		rec := serve(t, mw, "10.0.0.1:1234", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})
	serve(t, mw, "10.0.0.1:1234", "")
	serve(t, mw, "10.0.0.1:1234", "")

	rec := serve(t, mw, "10.0.0.1:1234", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_KeyedByUserThenIP(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	assert.Equal(t, http.StatusOK, serve(t, mw, "10.0.0.1:1", "alice").Code)
	// same IP, different user
	assert.Equal(t, http.StatusOK, serve(t, mw, "10.0.0.1:1", "bob").Code)
	// alice from another IP shares her bucket
	assert.Equal(t, http.StatusTooManyRequests, serve(t, mw, "10.0.0.2:1", "alice").Code)
	// anonymous caller on a fresh IP
	assert.Equal(t, http.StatusOK, serve(t, mw, "10.0.0.3:1", "").Code)
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimitConfig())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.limiter("user:alice")
	now = now.Add(20 * time.Minute)
	rl.limiter("user:bob")

	assert.Equal(t, 1, rl.Prune(10*time.Minute))
	assert.Equal(t, 1, rl.Len())
}
