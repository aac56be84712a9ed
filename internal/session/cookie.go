package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Cookies reads and issues the session id cookie
type Cookies struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Get returns the session id carried by r, if any
func (c Cookies) Get(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return "", false
	}
	return cookie.Value, true
}

// Ensure returns the request's session id, issuing a new cookie on w when
// the request has none
func (c Cookies) Ensure(w http.ResponseWriter, r *http.Request) string {
	if sid, ok := c.Get(r); ok {
		return sid
	}

	sid := uuid.NewString()
	cookie := &http.Cookie{
		Name:     c.Name,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if c.TTL > 0 {
		cookie.MaxAge = int(c.TTL / time.Second)
	}
	http.SetCookie(w, cookie)
	return sid
}
