package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"

	redisclient "github.com/inhausmakers/avatar-manager/internal/redis"
)

func okHandler(called *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		if called != nil {
			*called = true
		}
		return c.String(http.StatusOK, "ok")
	}
}

func TestRateLimit_WindowLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := redisclient.NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("creating test redis client: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	wrapped := RateLimitMiddleware(rdb, 2, time.Minute)(okHandler(nil))

	// First request passes and reports the remaining budget.
	c, rec := newTestContext(http.MethodGet, "/api/v1/test", nil)
	if err := wrapped(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Errorf("expected X-RateLimit-Limit=2, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Errorf("expected X-RateLimit-Remaining=1, got %q", got)
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("expected X-RateLimit-Reset header")
	}

	// Second request exhausts the window.
	c, _ = newTestContext(http.MethodGet, "/api/v1/test", nil)
	if err := wrapped(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Third is rejected with headers and Retry-After.
	c, rec = newTestContext(http.MethodGet, "/api/v1/test", nil)
	if err := wrapped(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d: %s", http.StatusTooManyRequests, rec.Code, rec.Body.String())
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if errResp.Error.Code != "RATE_LIMITED" {
		t.Errorf("expected error code 'RATE_LIMITED', got %q", errResp.Error.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected X-RateLimit-Remaining=0, got %q", got)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429 response")
	}

	// After the window expires the budget resets.
	mr.FastForward(time.Minute + time.Second)
	c, rec = newTestContext(http.MethodGet, "/api/v1/test", nil)
	if err := wrapped(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d after window reset, got %d", http.StatusOK, rec.Code)
	}
}

func TestRateLimit_FailOpen(t *testing.T) {
	// Close miniredis out from under the client to simulate an outage.
	mr := miniredis.RunT(t)
	rdb, err := redisclient.NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("creating test redis client: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	var called bool
	wrapped := RateLimitMiddleware(rdb, 1, time.Minute)(okHandler(&called))

	c, rec := newTestContext(http.MethodGet, "/api/v1/test", nil)
	if err := wrapped(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to run when redis is down")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestRateLimit_KeysSeparateUsers(t *testing.T) {
	rdb := newTestRedis(t)
	wrapped := RateLimitMiddleware(rdb, 1, time.Minute)(okHandler(nil))

	request := func(userID int64) int {
		c, rec := newTestContext(http.MethodGet, "/api/v1/test", nil)
		if userID != 0 {
			setAuthUser(c, userID)
		}
		if err := wrapped(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return rec.Code
	}

	if code := request(1); code != http.StatusOK {
		t.Fatalf("user 1 first request: expected %d, got %d", http.StatusOK, code)
	}
	if code := request(1); code != http.StatusTooManyRequests {
		t.Fatalf("user 1 second request: expected %d, got %d", http.StatusTooManyRequests, code)
	}
	// A different user and an anonymous client each get their own window.
	if code := request(2); code != http.StatusOK {
		t.Fatalf("user 2: expected %d, got %d", http.StatusOK, code)
	}
	if code := request(0); code != http.StatusOK {
		t.Fatalf("anonymous: expected %d, got %d", http.StatusOK, code)
	}
}
