package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	apperrors "github.com/n1rocket/go-profile-validity/internal/errors"
	httpcontext "github.com/n1rocket/go-profile-validity/internal/http/context"
	"github.com/n1rocket/go-profile-validity/internal/http/response"
)

// KeyFunc extracts a key from the request for rate limiting.
// An empty key disables limiting for that request.
type KeyFunc func(r *http.Request) string

// IPKeyFunc returns a key function that uses the client IP
func IPKeyFunc() KeyFunc {
	return func(r *http.Request) string {
		return "ip:" + clientIP(r)
	}
}

// UserKeyFunc returns a key function that uses the identified user id
func UserKeyFunc() KeyFunc {
	return func(r *http.Request) string {
		userID, ok := httpcontext.UserID(r.Context())
		if !ok {
			return ""
		}
		return "user:" + userID
	}
}

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	Rate    int           // tokens per window
	Burst   int           // max tokens in bucket
	Window  time.Duration // refill window
	MaxKeys int           // buckets kept before the least recently used is dropped
	KeyFunc KeyFunc
}

// IssueRateLimitConfig limits how often one user can request a verification email
func IssueRateLimitConfig(rate, burst int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Rate:    rate,
		Burst:   burst,
		Window:  window,
		MaxKeys: 10000,
		KeyFunc: UserKeyFunc(),
	}
}

// tokenBucket is guarded by RateLimiter.mu
type tokenBucket struct {
	tokens   float64
	lastFill time.Time
}

// RateLimiter implements a token bucket per key
type RateLimiter struct {
	mu      sync.Mutex
	buckets *expirable.LRU[string, *tokenBucket]
	rate    float64
	burst   float64
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter creates a new rate limiter. Idle buckets expire after two windows.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 1
	}
	if config.Burst <= 0 {
		config.Burst = config.Rate
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.MaxKeys <= 0 {
		config.MaxKeys = 10000
	}

	return &RateLimiter{
		buckets: expirable.NewLRU[string, *tokenBucket](config.MaxKeys, nil, 2*config.Window),
		rate:    float64(config.Rate),
		burst:   float64(config.Burst),
		window:  config.Window,
		now:     time.Now,
	}
}

// Allow takes a token for key and reports whether one was available, the
// tokens left and when the bucket will next hold a token
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, retryAt time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, ok := rl.buckets.Get(key)
	if !ok {
		bucket = &tokenBucket{tokens: rl.burst, lastFill: now}
	}

	elapsed := now.Sub(bucket.lastFill).Seconds()
	bucket.tokens = math.Min(bucket.tokens+elapsed*rl.rate/rl.window.Seconds(), rl.burst)
	bucket.lastFill = now

	if bucket.tokens >= 1 {
		bucket.tokens--
		allowed = true
	}
	rl.buckets.Add(key, bucket)

	remaining = int(bucket.tokens)
	retryAt = now
	if bucket.tokens < 1 {
		wait := (1 - bucket.tokens) * rl.window.Seconds() / rl.rate
		retryAt = now.Add(time.Duration(wait * float64(time.Second)))
	}
	return allowed, remaining, retryAt
}

// RateLimit returns a middleware that enforces config
func RateLimit(config RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(config)
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = IPKeyFunc()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, remaining, retryAt := limiter.Allow(key)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(int(limiter.burst)))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				retryAfter := int(math.Ceil(time.Until(retryAt).Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				logger.Warn("rate limit exceeded",
					"request_id", httpcontext.RequestID(r.Context()),
					"key", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				response.WriteError(w, apperrors.ErrRateLimitExceeded.WithDetails(map[string]int{
					"retry_after": retryAfter,
				}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP from the request
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
