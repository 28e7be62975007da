package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healingspace/healingspace/internal/platform/auth"
	"github.com/healingspace/healingspace/internal/platform/metrics"
)

func newTestContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withUser(c echo.Context, username string, roles ...string) {
	req := c.Request()
	c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), username, roles...)))
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRequestID_GeneratesNew(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/")

	var seen string
	err := RequestID()(func(c echo.Context) error {
		seen = c.Get("request_id").(string)
		return nil
	})(c)

	require.NoError(t, err)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_PreservesExisting(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/")
	c.Request().Header.Set(RequestIDHeader, "my-custom-id")

	require.NoError(t, RequestID()(okHandler)(c))
	assert.Equal(t, "my-custom-id", c.Get("request_id"))
	assert.Equal(t, "my-custom-id", rec.Header().Get(RequestIDHeader))
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	c, _ := newTestContext(http.MethodGet, "/api/profile")
	withUser(c, "alice", auth.RoleUser)
	c.Set("request_id", "req-1")

	err := Logger(logger)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "nope")
	})(c)

	require.Error(t, err)
	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"status":403`)
	assert.Contains(t, out, `"user":"alice"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
}

func TestLogger_ServerErrorLoggedAtError(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newTestContext(http.MethodGet, "/api/mood/history")

	_ = Logger(zerolog.New(&buf))(func(c echo.Context) error {
		return errors.New("db down")
	})(c)

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"status":500`)
}

func TestRecovery_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newTestContext(http.MethodGet, "/api/mood")
	c.SetPath("/api/mood")
	c.Set("request_id", "req-1")
	withUser(c, "alice", auth.RoleUser)

	err := Recovery(zerolog.New(&buf), nil)(func(c echo.Context) error {
		panic("test panic")
	})(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
	assert.Contains(t, he.Internal.Error(), "test panic")

	var entry struct {
		Message   string   `json:"message"`
		RequestID string   `json:"request_id"`
		User      string   `json:"user"`
		Route     string   `json:"route"`
		Stack     []string `json:"stack"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "panic recovered", entry.Message)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "alice", entry.User)
	assert.Equal(t, "/api/mood", entry.Route)
	require.NotEmpty(t, entry.Stack)
	for _, f := range entry.Stack {
		assert.NotContains(t, f, "runtime.gopanic")
	}
}

func TestRecovery_RendersErrorBody(t *testing.T) {
	m := metrics.New()
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(zerolog.Nop(), false)
	e.Use(Recovery(zerolog.Nop(), m))
	e.GET("/api/boom", func(echo.Context) error { panic(errors.New("nil map")) })
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `healingspace_http_panics_total{route="/api/boom"} 1`)
}

func TestRecovery_ReraisesAbortHandler(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/stream")
	h := Recovery(zerolog.Nop(), nil)(func(echo.Context) error {
		panic(http.ErrAbortHandler)
	})
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() { _ = h(c) })
}

func TestRecovery_PassesThrough(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/ok")
	require.NoError(t, Recovery(zerolog.Nop(), nil)(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeaders_SetsHeaders(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/api/profile")
	require.NoError(t, SecurityHeaders(DefaultHeaderPolicy(true))(okHandler)(c))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_DevelopmentSkipsHSTS(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/api/profile")
	require.NoError(t, SecurityHeaders(DefaultHeaderPolicy(false))(okHandler)(c))

	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestSecurityHeaders_NoStoreOnlyUnderPrefix(t *testing.T) {
	p := DefaultHeaderPolicy(false)
	tests := []struct {
		path    string
		noStore bool
	}{
		{"/api", true},
		{"/api/mood/history", true},
		{"/apidocs", false},
		{"/metrics", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c, rec := newTestContext(http.MethodGet, tt.path)
			require.NoError(t, SecurityHeaders(p)(okHandler)(c))
			assert.Equal(t, tt.noStore, rec.Header().Get("Cache-Control") == "no-store")
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestSecurityHeaders_PropagatesHandlerError(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/")
	boom := errors.New("boom")
	err := SecurityHeaders(HeaderPolicy{})(func(echo.Context) error { return boom })(c)
	assert.ErrorIs(t, err, boom)
}
