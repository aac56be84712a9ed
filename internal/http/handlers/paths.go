package handlers

import (
	"net/http"

	"github.com/n1rocket/go-profile-validity/internal/http/request"
)

// Paths locates the profile resources. References are absolute, built from
// BaseURL when set and from the request otherwise.
type Paths struct {
	BaseURL string
	// Profile is the profile resource path, "/api/profile" by default
	Profile string
	// ConfirmRedirect is where a confirmation redirects; empty means
	// answer with a JSON acknowledgement instead
	ConfirmRedirect string
}

// ProfileRef returns the absolute profile reference
func (p Paths) ProfileRef(r *http.Request) string {
	return request.Ref(r, p.BaseURL, p.Profile)
}

// ValidityRef returns the absolute validity reference
func (p Paths) ValidityRef(r *http.Request) string {
	return request.Join(p.ProfileRef(r), "validity")
}

// VerifyRef returns the confirm endpoint base; secrets are appended to it
func (p Paths) VerifyRef(r *http.Request) string {
	return request.Join(p.ValidityRef(r), "verify")
}

// SiteRef returns the absolute site root
func (p Paths) SiteRef(r *http.Request) string {
	return request.Ref(r, p.BaseURL, "/")
}
