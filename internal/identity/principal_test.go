package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/n1rocket/go-profile-validity/internal/errors"
	"github.com/n1rocket/go-profile-validity/internal/token"
)

const validID = "5f0c6b3e-8d7a-4c43-9a0e-2f1b7c9d4e21"

type account struct{ id string }

func (a account) IdentityID() string { return a.id }

type member struct{ id string }

func (m *member) IdentityID() string { return m.id }

func TestPrincipal_UserID(t *testing.T) {
	tests := []struct {
		name      string
		principal Principal
		wantKind  Kind
		wantID    string
		wantErr   error
	}{
		{"none", None(), KindNone, "", apperrors.ErrUnauthorized},
		{"zero value", Principal{}, KindNone, "", apperrors.ErrUnauthorized},
		{"bare id", FromID(validID), KindID, validID, nil},
		{"upper-case id is canonicalised", FromID("5F0C6B3E-8D7A-4C43-9A0E-2F1B7C9D4E21"), KindID, validID, nil},
		{"record", FromRecord(account{validID}), KindRecord, validID, nil},
		{"nil record", FromRecord(nil), KindNone, "", apperrors.ErrUnauthorized},
		{"pointer record", FromRecord(&member{validID}), KindRecord, validID, nil},
		{"typed nil record", FromRecord((*member)(nil)), KindRecord, "", apperrors.ErrUnauthorized},
		{"non-uuid id", FromID("42"), KindID, "", apperrors.ErrInvalidPrincipal},
		{"record with bad id", FromRecord(account{"admin"}), KindRecord, "", apperrors.ErrInvalidPrincipal},
		{"value nil", FromValue(nil), KindNone, "", apperrors.ErrUnauthorized},
		{"value string", FromValue(validID), KindID, validID, nil},
		{"value record", FromValue(account{validID}), KindRecord, validID, nil},
		{"value unsupported", FromValue(42), KindUnsupported, "", apperrors.ErrInvalidPrincipal},
		{"value map", FromValue(map[string]string{"id": validID}), KindUnsupported, "", apperrors.ErrInvalidPrincipal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.principal.Kind())

			id, err := tt.principal.UserID()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestBearerResolver(t *testing.T) {
	manager, err := token.NewManager("HS256", "test-secret", "", "", "test-issuer", time.Minute)
	require.NoError(t, err)

	signed, err := manager.GenerateAccessToken(validID, "alice@test.org")
	require.NoError(t, err)

	resolver := NewBearerResolver(manager)

	tests := []struct {
		name     string
		header   string
		wantKind Kind
	}{
		{"no header", "", KindNone},
		{"basic auth", "Basic dXNlcjpwYXNz", KindNone},
		{"empty bearer", "Bearer ", KindNone},
		{"invalid token", "Bearer not-a-token", KindNone},
		{"valid token", "Bearer " + signed, KindRecord},
		{"lower-case scheme", "bearer " + signed, KindRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			p, err := resolver.Resolve(r)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, p.Kind())

			if tt.wantKind == KindRecord {
				id, err := p.UserID()
				require.NoError(t, err)
				assert.Equal(t, validID, id)
			}
		})
	}
}

func TestResolverFunc(t *testing.T) {
	var resolver Resolver = ResolverFunc(func(r *http.Request) (Principal, error) {
		return FromValue(r.Header.Get("X-User-ID")), nil
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-User-ID", validID)

	p, err := resolver.Resolve(r)
	require.NoError(t, err)
	id, err := p.UserID()
	require.NoError(t, err)
	assert.Equal(t, validID, id)
}
