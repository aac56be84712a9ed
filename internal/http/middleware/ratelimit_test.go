package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpcontext "github.com/n1rocket/go-profile-validity/internal/http/context"
)

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Rate: 2, Burst: 2, Window: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _, _ := rl.Allow("k"); !ok {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	ok, remaining, retryAt := rl.Allow("k")
	if ok {
		t.Fatal("third request should be limited")
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
	if want := now.Add(30 * time.Second); !retryAt.Equal(want) {
		t.Errorf("retryAt = %v, want %v", retryAt, want)
	}

	if ok, _, _ := rl.Allow("other"); !ok {
		t.Error("keys must not share buckets")
	}

	now = now.Add(30 * time.Second)
	if ok, _, _ := rl.Allow("k"); !ok {
		t.Error("bucket should have refilled one token")
	}
	if ok, _, _ := rl.Allow("k"); ok {
		t.Error("bucket should be empty again")
	}
}

func TestRateLimit_Middleware(t *testing.T) {
	captureLogs(t)

	handler := RateLimit(IssueRateLimitConfig(1, 1, time.Hour), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	}))

	request := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/profile/validity", nil)
		if userID != "" {
			req = req.WithContext(httpcontext.WithUserID(req.Context(), userID))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	if w := request("alice"); w.Code != http.StatusSeeOther {
		t.Fatalf("first request status = %d", w.Code)
	}

	w := request("alice")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if w.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("X-RateLimit-Limit = %q", w.Header().Get("X-RateLimit-Limit"))
	}
	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]int `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != "RATE_LIMIT_EXCEEDED" || body.Error.Details["retry_after"] < 1 {
		t.Errorf("unexpected body %+v", body)
	}

	if w := request("bob"); w.Code != http.StatusSeeOther {
		t.Errorf("other user status = %d", w.Code)
	}

	// Without a user key the limiter does not apply
	for i := 0; i < 3; i++ {
		if w := request(""); w.Code != http.StatusSeeOther {
			t.Errorf("anonymous request status = %d", w.Code)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.8"}, "10.0.0.1:1234", "203.0.113.8"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
