package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	errs "github.com/finchbot/finch/server/internal/errors"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	require.True(t, rl.Allow("client-a"))
	require.True(t, rl.Allow("client-a"))
	// Burst exhausted.
	require.False(t, rl.Allow("client-a"))

	// Separate keys have separate buckets.
	require.True(t, rl.Allow("client-b"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(1, 1)
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	}, rl.Middleware())

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, do().Code)

	rec := do()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// The 429 body carries the same typed payload as every other error
	// surface.
	var resp errs.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, string(errs.ErrCodeExecutionError), resp.Type)
	require.True(t, resp.Retryable)
	require.NotEmpty(t, resp.Message)
}
