package middleware

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpcontext "github.com/n1rocket/go-profile-validity/internal/http/context"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httpcontext.RequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates request ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get("X-Request-ID")
		if len(id) != 36 {
			t.Errorf("expected a uuid request id, got %q", id)
		}
		if seen != id {
			t.Errorf("context id %q does not match header %q", seen, id)
		}
	})

	t.Run("uses existing request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-ID", "existing-request-id-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get("X-Request-ID"); got != "existing-request-id-123" {
			t.Errorf("expected existing id, got %q", got)
		}
	})

	t.Run("different requests get different IDs", func(t *testing.T) {
		ids := make(map[string]bool)
		for i := 0; i < 10; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
			id := w.Header().Get("X-Request-ID")
			if ids[id] {
				t.Errorf("duplicate request id %s", id)
			}
			ids[id] = true
		}
	})
}

func TestLogger(t *testing.T) {
	buf := captureLogs(t)

	handler := RequestID(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/profile", nil)
	req = req.WithContext(httpcontext.WithUserID(req.Context(), "6f1c1f8e-3a7e-4b8e-9a63-7c1f2d3e4b5a"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line %q: %v", buf.String(), err)
	}

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["method"] != http.MethodPost || entry["path"] != "/api/profile" {
		t.Errorf("unexpected method/path: %v %v", entry["method"], entry["path"])
	}
	if entry["status"] != float64(http.StatusTeapot) {
		t.Errorf("status = %v", entry["status"])
	}
	if entry["bytes"] != float64(len("short and stout")) {
		t.Errorf("bytes = %v", entry["bytes"])
	}
	if entry["request_id"] == "" || entry["request_id"] == nil {
		t.Error("expected request_id in log")
	}
	if entry["user_id"] != "6f1c1f8e-3a7e-4b8e-9a63-7c1f2d3e4b5a" {
		t.Errorf("user_id = %v", entry["user_id"])
	}
}

func TestLogger_DefaultStatus(t *testing.T) {
	buf := captureLogs(t)

	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Errorf("expected status 200 in log, got %s", buf.String())
	}
}

func TestRecover(t *testing.T) {
	tests := []struct {
		name       string
		panicValue interface{}
		expectLog  bool
	}{
		{"string panic", "something went wrong", true},
		{"error panic", http.ErrAbortHandler, false},
		{"integer panic", 42, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)

			handler := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.panicValue)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req = req.WithContext(httpcontext.WithRequestID(req.Context(), "test-request-id"))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusInternalServerError {
				t.Errorf("expected status 500, got %d", w.Code)
			}

			logged := strings.Contains(buf.String(), "panic recovered")
			if logged != tt.expectLog {
				t.Errorf("logged = %v, want %v (%s)", logged, tt.expectLog, buf.String())
			}
			if tt.expectLog {
				var entry map[string]interface{}
				if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
					t.Fatalf("failed to parse log: %v", err)
				}
				if _, ok := entry["stack"]; !ok {
					t.Error("expected stack in log")
				}
				if entry["request_id"] != "test-request-id" {
					t.Errorf("request_id = %v", entry["request_id"])
				}
			}
		})
	}
}

func TestRecover_AfterWrite(t *testing.T) {
	captureLogs(t)

	handler := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("partial"))
		panic("late")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected original status to be kept, got %d", w.Code)
	}
	if w.Body.String() != "partial" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(DefaultSecurityConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("plain http", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		want := map[string]string{
			"X-Content-Type-Options":       "nosniff",
			"X-Frame-Options":              "DENY",
			"Referrer-Policy":              "no-referrer",
			"Cross-Origin-Opener-Policy":   "same-origin",
			"Cross-Origin-Resource-Policy": "same-origin",
		}
		for name, value := range want {
			if got := w.Header().Get(name); got != value {
				t.Errorf("%s = %q, want %q", name, got, value)
			}
		}
		if got := w.Header().Get("Strict-Transport-Security"); got != "" {
			t.Errorf("HSTS must not be sent over http, got %q", got)
		}
	})

	t.Run("tls", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.TLS = &tls.ConnectionState{}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get("Strict-Transport-Security"); got == "" {
			t.Error("expected HSTS over tls")
		}
	})

	t.Run("forwarded https", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get("Strict-Transport-Security"); got == "" {
			t.Error("expected HSTS behind a tls proxy")
		}
	})

	t.Run("empty values are skipped", func(t *testing.T) {
		h := SecurityHeaders(SecurityConfig{XFrameOptions: "DENY"})(http.NotFoundHandler())
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if _, ok := w.Header()["Content-Security-Policy"]; ok {
			t.Error("expected no CSP header")
		}
	})
}
