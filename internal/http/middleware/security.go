package middleware

import (
	"net/http"
)

// SecurityConfig holds security headers configuration
type SecurityConfig struct {
	ContentSecurityPolicy     string
	CrossOriginOpenerPolicy   string
	CrossOriginResourcePolicy string

	// StrictTransportSecurity is only sent on HTTPS requests
	StrictTransportSecurity string

	XContentTypeOptions string
	XFrameOptions       string
	ReferrerPolicy      string
}

// DefaultSecurityConfig returns the headers used for the profile API.
// Responses are JSON or redirects, so nothing may be framed or embedded.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		ContentSecurityPolicy:     "default-src 'none'; frame-ancestors 'none'",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		StrictTransportSecurity:   "max-age=31536000; includeSubDomains",
		XContentTypeOptions:       "nosniff",
		XFrameOptions:             "DENY",
		// Verification links carry the secret in the path
		ReferrerPolicy: "no-referrer",
	}
}

// SecurityHeaders returns a middleware that sets security headers
func SecurityHeaders(config SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setHeader(w, "Content-Security-Policy", config.ContentSecurityPolicy)
			setHeader(w, "Cross-Origin-Opener-Policy", config.CrossOriginOpenerPolicy)
			setHeader(w, "Cross-Origin-Resource-Policy", config.CrossOriginResourcePolicy)

			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				setHeader(w, "Strict-Transport-Security", config.StrictTransportSecurity)
			}

			setHeader(w, "X-Content-Type-Options", config.XContentTypeOptions)
			setHeader(w, "X-Frame-Options", config.XFrameOptions)
			setHeader(w, "Referrer-Policy", config.ReferrerPolicy)

			next.ServeHTTP(w, r)
		})
	}
}

// setHeader sets a header only if the value is not empty
func setHeader(w http.ResponseWriter, name, value string) {
	if value != "" {
		w.Header().Set(name, value)
	}
}
