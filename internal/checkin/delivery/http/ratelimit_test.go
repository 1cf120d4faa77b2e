package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRateLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRateLimiter(client, 1, time.Minute)
	called := 0
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/1/analytics", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status %d, want 204", i, rec.Code)
		}
	}
	if called != 3 {
		t.Errorf("handler called %d times, want 3", called)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	if got := clientIP(req); got != "10.1.2.3" {
		t.Errorf("clientIP = %q", got)
	}
	req.RemoteAddr = "pipe"
	if got := clientIP(req); got != "pipe" {
		t.Errorf("clientIP = %q", got)
	}
}
