package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(limiter *RateLimiter, rules map[string]RateLimitRule) *gin.Engine {
	r := gin.New()
	r.Use(Identity())
	r.Use(RateLimit(RateLimitConfig{Limiter: limiter, Rules: rules}))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.POST("/api/llm/analyze", ok)
	r.GET("/api/llm/providers", ok)
	r.GET("/api/github/repositories", ok)
	return r
}

func serve(r http.Handler, method, path, client string) *httptest.ResponseRecorder {
	return serveFrom(r, method, path, client, "")
}

func serveFrom(r http.Handler, method, path, client, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	if client != "" {
		req.Header.Set("X-Client-Id", client)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRateLimitGroupsByPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	r := newLimitedRouter(limiter, map[string]RateLimitRule{
		RateGroupLLM:     {Rate: 1, Burst: 1},
		RateGroupGitHub:  {Rate: 1, Burst: 3},
		RateGroupDefault: {Rate: 5, Burst: 10},
	})

	if resp := serve(r, http.MethodPost, "/api/llm/analyze", "c1"); resp.Code != http.StatusOK {
		t.Fatalf("first llm request expected 200, got %d", resp.Code)
	}
	if resp := serve(r, http.MethodPost, "/api/llm/analyze", "c1"); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("second llm request expected 429, got %d", resp.Code)
	}
	// Read-only LLM routes are in the default group.
	for i := 0; i < 3; i++ {
		if resp := serve(r, http.MethodGet, "/api/llm/providers", "c1"); resp.Code != http.StatusOK {
			t.Fatalf("providers request %d expected 200, got %d", i+1, resp.Code)
		}
	}
	for i := 0; i < 3; i++ {
		if resp := serve(r, http.MethodGet, "/api/github/repositories", "c1"); resp.Code != http.StatusOK {
			t.Fatalf("github request %d expected 200, got %d", i+1, resp.Code)
		}
	}
	if resp := serve(r, http.MethodGet, "/api/github/repositories", "c1"); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("github request 4 expected 429, got %d", resp.Code)
	}
}

func TestRateLimitIsPerAddress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	r := newLimitedRouter(limiter, map[string]RateLimitRule{
		RateGroupLLM: {Rate: 1, Burst: 1},
	})

	if resp := serveFrom(r, http.MethodPost, "/api/llm/analyze", "a", "10.0.0.1:1234"); resp.Code != http.StatusOK {
		t.Fatalf("first address expected 200, got %d", resp.Code)
	}
	if resp := serveFrom(r, http.MethodPost, "/api/llm/analyze", "a", "10.0.0.2:1234"); resp.Code != http.StatusOK {
		t.Fatalf("second address expected 200, got %d", resp.Code)
	}
}

func TestRateLimitIgnoresRotatingClientIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	r := newLimitedRouter(limiter, map[string]RateLimitRule{
		RateGroupLLM: {Rate: 1, Burst: 1},
	})

	allowed := 0
	for i := 0; i < 50; i++ {
		resp := serveFrom(r, http.MethodPost, "/api/llm/analyze", fmt.Sprintf("tab-%d", i), "10.0.0.1:1234")
		if resp.Code == http.StatusOK {
			allowed++
		}
	}
	if allowed != 1 {
		t.Fatalf("expected 1 allowed request, got %d", allowed)
	}
	if n := limiter.Len(); n != 1 {
		t.Fatalf("expected 1 bucket, got %d", n)
	}
}

func TestRateLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 1}

	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("ip:10.0.0.%d|LLM", i), rule)
	}
	if n := limiter.Len(); n != 5 {
		t.Fatalf("expected 5 buckets, got %d", n)
	}

	now = now.Add(idleAfter)
	limiter.Allow("ip:10.0.0.99|LLM", rule)
	if n := limiter.Len(); n != 1 {
		t.Fatalf("expected idle buckets swept, got %d", n)
	}
}

func TestRateLimitRefillsOverTime(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 0.5, Burst: 1}

	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected first call allowed")
	}
	ok, wait := limiter.Allow("k", rule)
	if ok {
		t.Fatalf("expected second call limited")
	}
	if wait != 2*time.Second {
		t.Fatalf("expected 2s wait, got %v", wait)
	}
	now = now.Add(2 * time.Second)
	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected call allowed after refill")
	}
}

func TestRateLimit429IncludesRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	r := newLimitedRouter(limiter, map[string]RateLimitRule{
		RateGroupLLM: {Rate: 1, Burst: 1},
	})

	serve(r, http.MethodPost, "/api/llm/analyze", "")
	resp := serve(r, http.MethodPost, "/api/llm/analyze", "")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", resp.Header().Get("Retry-After"))
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != "rate_limited" {
		t.Fatalf("expected error=rate_limited")
	}
	if payload["group"] != RateGroupLLM {
		t.Fatalf("expected group LLM, got %v", payload["group"])
	}
	if _, ok := payload["retryAfterMs"]; !ok {
		t.Fatalf("expected retryAfterMs in response")
	}
}
