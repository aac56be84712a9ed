package token

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired
	ErrExpiredToken = errors.New("token has expired")
	// ErrSigningUnavailable is returned when the manager holds no signing key
	ErrSigningUnavailable = errors.New("token signing key not configured")
)

// Claims represents the access token claims. Subject carries the user id.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ID returns the user id, preferring the explicit claim over the subject
func (c *Claims) ID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Manager signs and validates access tokens
type Manager struct {
	method         jwt.SigningMethod
	signKey        interface{}
	verifyKey      interface{}
	issuer         string
	accessTokenTTL time.Duration
}

// NewManager creates a new token manager. For RS256 the private key path may be
// empty when the manager only validates tokens issued elsewhere.
func NewManager(algorithm, secret, privateKeyPath, publicKeyPath, issuer string, accessTokenTTL time.Duration) (*Manager, error) {
	m := &Manager{
		issuer:         issuer,
		accessTokenTTL: accessTokenTTL,
	}

	switch algorithm {
	case "HS256":
		if secret == "" {
			return nil, fmt.Errorf("secret is required for HS256 algorithm")
		}
		m.method = jwt.SigningMethodHS256
		m.signKey = []byte(secret)
		m.verifyKey = []byte(secret)

	case "RS256":
		if publicKeyPath == "" {
			return nil, fmt.Errorf("public key path is required for RS256 algorithm")
		}
		m.method = jwt.SigningMethodRS256

		publicKeyData, err := os.ReadFile(publicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key: %w", err)
		}
		publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		m.verifyKey = publicKey

		if privateKeyPath != "" {
			privateKeyData, err := os.ReadFile(privateKeyPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read private key: %w", err)
			}
			privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
			if err != nil {
				return nil, fmt.Errorf("failed to parse private key: %w", err)
			}
			m.signKey = privateKey
		}

	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", algorithm)
	}

	return m, nil
}

// GenerateAccessToken signs a token for userID
func (m *Manager) GenerateAccessToken(userID, email string) (string, error) {
	if m.signKey == nil {
		return "", ErrSigningUnavailable
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(m.method, claims).SignedString(m.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateAccessToken validates an access token and returns its claims.
// Tokens signed with another algorithm or by another issuer are rejected.
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{m.method.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.verifyKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID() == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
