package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func limiterRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/login", rl.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func hitLogin(r *gin.Engine) int {
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiterExhaustsBudget(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	r := limiterRouter(rl)

	for i := 0; i < 3; i++ {
		if code := hitLogin(r); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, code)
		}
	}
	if code := hitLogin(r); code != http.StatusTooManyRequests {
		t.Fatalf("over-budget request: status = %d, want 429", code)
	}
}

func TestRateLimiterRefillsAfterInterval(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	r := limiterRouter(rl)

	if code := hitLogin(r); code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", code)
	}
	if code := hitLogin(r); code != http.StatusTooManyRequests {
		t.Fatalf("exhausted request: status = %d, want 429", code)
	}

	rl.mu.Lock()
	for _, v := range rl.visitors {
		v.lastRefill = time.Now().Add(-2 * time.Minute)
	}
	rl.mu.Unlock()

	if code := hitLogin(r); code != http.StatusOK {
		t.Fatalf("post-interval request: status = %d, want 200", code)
	}
}

// A visitor being actively limited must not fall out of the cleanup
// horizon: every request refreshes lastSeen, even denied ones, so steady
// hammering cannot buy a fresh bucket through eviction.
func TestRateLimiterCleanupKeepsActiveVisitor(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	r := limiterRouter(rl)

	hitLogin(r)
	if code := hitLogin(r); code != http.StatusTooManyRequests {
		t.Fatalf("exhausted request: status = %d, want 429", code)
	}

	// Simulate a bucket whose last refill is far in the past, then keep
	// hammering. lastSeen must track the denied request.
	rl.mu.Lock()
	for _, v := range rl.visitors {
		v.lastSeen = time.Now().Add(-10 * time.Minute)
	}
	rl.mu.Unlock()

	if code := hitLogin(r); code != http.StatusTooManyRequests {
		t.Fatalf("hammering request: status = %d, want 429", code)
	}

	rl.cleanup()

	rl.mu.Lock()
	remaining := len(rl.visitors)
	rl.mu.Unlock()
	if remaining != 1 {
		t.Fatalf("visitors after cleanup = %d, want 1", remaining)
	}

	if code := hitLogin(r); code != http.StatusTooManyRequests {
		t.Fatalf("post-cleanup request: status = %d, want 429 (budget must not reset)", code)
	}
}
