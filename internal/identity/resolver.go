package identity

import (
	"net/http"
	"strings"

	"github.com/n1rocket/go-profile-validity/internal/token"
)

// Resolver determines the caller of a request.
// Returning None with a nil error means the caller is anonymous.
type Resolver interface {
	Resolve(r *http.Request) (Principal, error)
}

// ResolverFunc adapts an ordinary function to a Resolver
type ResolverFunc func(r *http.Request) (Principal, error)

// Resolve calls f(r)
func (f ResolverFunc) Resolve(r *http.Request) (Principal, error) {
	return f(r)
}

// TokenValidator validates bearer access tokens
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*token.Claims, error)
}

// BearerResolver resolves callers from "Authorization: Bearer <jwt>" headers.
// Missing, malformed and invalid tokens all resolve to None.
type BearerResolver struct {
	Tokens TokenValidator
}

// NewBearerResolver creates a resolver backed by tokens
func NewBearerResolver(tokens TokenValidator) *BearerResolver {
	return &BearerResolver{Tokens: tokens}
}

// Resolve implements Resolver
func (b *BearerResolver) Resolve(r *http.Request) (Principal, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return None(), nil
	}

	claims, err := b.Tokens.ValidateAccessToken(raw)
	if err != nil {
		return None(), nil
	}

	return FromRecord(claimsRecord{claims}), nil
}

type claimsRecord struct {
	claims *token.Claims
}

func (c claimsRecord) IdentityID() string {
	return c.claims.ID()
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	value = strings.TrimSpace(value)
	return value, value != ""
}
