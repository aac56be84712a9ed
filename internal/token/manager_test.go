package token

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func generateTestKeys(t *testing.T, privateKeyPath, publicKeyPath string) {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate private key: %v", err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	if err := os.WriteFile(privateKeyPath, privatePEM, 0o600); err != nil {
		t.Fatalf("Failed to write private key: %v", err)
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		t.Fatalf("Failed to marshal public key: %v", err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})
	if err := os.WriteFile(publicKeyPath, publicPEM, 0o644); err != nil {
		t.Fatalf("Failed to write public key: %v", err)
	}
}

func TestNewManager_HS256(t *testing.T) {
	if _, err := NewManager("HS256", "my-secret-key", "", "", "test-issuer", 15*time.Minute); err != nil {
		t.Errorf("NewManager() error = %v", err)
	}
	if _, err := NewManager("HS256", "", "", "", "test-issuer", 15*time.Minute); err == nil {
		t.Error("NewManager() should fail without a secret")
	}
}

func TestNewManager_RS256(t *testing.T) {
	tempDir := t.TempDir()
	privateKeyPath := filepath.Join(tempDir, "private.pem")
	publicKeyPath := filepath.Join(tempDir, "public.pem")
	generateTestKeys(t, privateKeyPath, publicKeyPath)

	tests := []struct {
		name           string
		privateKeyPath string
		publicKeyPath  string
		wantErr        bool
	}{
		{"valid keys", privateKeyPath, publicKeyPath, false},
		{"verify only", "", publicKeyPath, false},
		{"missing public key", privateKeyPath, "", true},
		{"non-existent private key", "/non/existent/private.pem", publicKeyPath, true},
		{"public key is not PEM", privateKeyPath, privateKeyPath, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager("RS256", "", tt.privateKeyPath, tt.publicKeyPath, "test-issuer", 15*time.Minute)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewManager() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewManager_UnsupportedAlgorithm(t *testing.T) {
	if _, err := NewManager("HS512", "secret", "", "", "test-issuer", 15*time.Minute); err == nil {
		t.Error("NewManager() should return error for unsupported algorithm")
	}
}

func TestManager_RoundTrip_HS256(t *testing.T) {
	manager, err := NewManager("HS256", "test-secret", "", "", "test-issuer", 15*time.Minute)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	tokenString, err := manager.GenerateAccessToken("user-123", "alice@test.org")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := manager.ValidateAccessToken(tokenString)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.ID() != "user-123" || claims.Email != "alice@test.org" || claims.Issuer != "test-issuer" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestManager_RoundTrip_RS256(t *testing.T) {
	tempDir := t.TempDir()
	privateKeyPath := filepath.Join(tempDir, "private.pem")
	publicKeyPath := filepath.Join(tempDir, "public.pem")
	generateTestKeys(t, privateKeyPath, publicKeyPath)

	signer, err := NewManager("RS256", "", privateKeyPath, publicKeyPath, "test-issuer", 15*time.Minute)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	verifier, err := NewManager("RS256", "", "", publicKeyPath, "test-issuer", 15*time.Minute)
	if err != nil {
		t.Fatalf("Failed to create verifier: %v", err)
	}

	tokenString, err := signer.GenerateAccessToken("user-456", "")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := verifier.ValidateAccessToken(tokenString)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.ID() != "user-456" {
		t.Errorf("ID() = %q", claims.ID())
	}

	if _, err := verifier.GenerateAccessToken("user-456", ""); !errors.Is(err, ErrSigningUnavailable) {
		t.Errorf("verify-only manager signed a token: err = %v", err)
	}
}

func TestManager_ValidateAccessToken_Rejections(t *testing.T) {
	manager, err := NewManager("HS256", "test-secret", "", "", "test-issuer", 15*time.Minute)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key interface{}) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	now := time.Now()
	valid := func() Claims {
		return Claims{
			UserID: "user-123",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))

	otherIssuer := valid()
	otherIssuer.Issuer = "someone-else"

	noSubject := valid()
	noSubject.UserID = ""

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"garbage", "not.a.token", ErrInvalidToken},
		{"wrong secret", sign(valid(), jwt.SigningMethodHS256, []byte("other-secret")), ErrInvalidToken},
		{"wrong algorithm", sign(valid(), jwt.SigningMethodHS384, []byte("test-secret")), ErrInvalidToken},
		{"expired", sign(expired, jwt.SigningMethodHS256, []byte("test-secret")), ErrExpiredToken},
		{"other issuer", sign(otherIssuer, jwt.SigningMethodHS256, []byte("test-secret")), ErrInvalidToken},
		{"no user id", sign(noSubject, jwt.SigningMethodHS256, []byte("test-secret")), ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.ValidateAccessToken(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAccessToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
