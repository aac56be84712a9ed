package request

import (
	"net/http"
	"strings"
)

// Ref returns the absolute reference of path for the current request.
// When baseURL is set it is used as is; otherwise the scheme and host come
// from X-Forwarded-Proto/X-Forwarded-Host or the request itself.
func Ref(r *http.Request, baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = scheme(r) + "://" + host(r)
	}
	if path == "" {
		return base + "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// Join appends path segments to ref
func Join(ref string, segments ...string) string {
	out := strings.TrimRight(ref, "/")
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		out += "/" + s
	}
	return out
}

func scheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		if i := strings.IndexByte(proto, ','); i >= 0 {
			proto = proto[:i]
		}
		return strings.ToLower(strings.TrimSpace(proto))
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func host(r *http.Request) string {
	if h := r.Header.Get("X-Forwarded-Host"); h != "" {
		if i := strings.IndexByte(h, ','); i >= 0 {
			h = h[:i]
		}
		return strings.TrimSpace(h)
	}
	return r.Host
}
