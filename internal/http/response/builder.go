package response

import (
	"encoding/json"
	"net/http"
)

// Builder assembles a resource representation before it is written
type Builder struct {
	w      http.ResponseWriter
	status int
	header http.Header
}

// NewBuilder starts a 200 response on w
func NewBuilder(w http.ResponseWriter) *Builder {
	return &Builder{w: w, status: http.StatusOK, header: make(http.Header)}
}

// Status overrides the status code
func (b *Builder) Status(code int) *Builder {
	b.status = code
	return b
}

// NoStore keeps per-user representations out of shared caches
func (b *Builder) NoStore() *Builder {
	b.header.Set("Cache-Control", "no-store")
	b.header.Add("Vary", "Authorization")
	return b
}

// Location sets Content-Location to the absolute reference of the
// representation. Empty refs are ignored.
func (b *Builder) Location(ref string) *Builder {
	if ref != "" {
		b.header.Set("Content-Location", ref)
	}
	return b
}

// JSON writes the headers, the status and v encoded as JSON
func (b *Builder) JSON(v interface{}) error {
	h := b.w.Header()
	for key, values := range b.header {
		h[key] = values
	}
	h.Set("Content-Type", "application/json")
	b.w.WriteHeader(b.status)

	if v == nil {
		return nil
	}
	return json.NewEncoder(b.w).Encode(v)
}
