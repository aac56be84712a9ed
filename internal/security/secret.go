package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

var (
	// ErrMalformedHash is returned when a stored hash cannot be decoded
	ErrMalformedHash = errors.New("malformed secret hash")
	// ErrIncompatibleVersion is returned for hashes made by another argon2 version
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// SecretGenerator produces one-time verification secrets
type SecretGenerator interface {
	Generate() string
}

// UUIDGenerator generates random v4 UUIDs
type UUIDGenerator struct{}

// Generate returns a fresh random UUID string
func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// Argon2Params holds the argon2id cost parameters
type Argon2Params struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params returns parameters suitable for short-lived secrets
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:  64 * 1024,
		Time:    1,
		Threads: 2,
		SaltLen: 16,
		KeyLen:  32,
	}
}

// SecretHasher produces and compares salted argon2id hashes of secrets.
// Encoded hashes carry their own salt and parameters:
//
//	$argon2id$v=19$m=65536,t=1,p=2$<salt>$<key>
type SecretHasher struct {
	params Argon2Params
}

// NewSecretHasher creates a hasher with the given parameters
func NewSecretHasher(params Argon2Params) *SecretHasher {
	defaults := DefaultArgon2Params()
	if params.Memory == 0 {
		params.Memory = defaults.Memory
	}
	if params.Time == 0 {
		params.Time = defaults.Time
	}
	if params.Threads == 0 {
		params.Threads = defaults.Threads
	}
	if params.SaltLen == 0 {
		params.SaltLen = defaults.SaltLen
	}
	if params.KeyLen == 0 {
		params.KeyLen = defaults.KeyLen
	}
	return &SecretHasher{params: params}
}

// NewDefaultSecretHasher creates a hasher with default parameters
func NewDefaultSecretHasher() *SecretHasher {
	return NewSecretHasher(DefaultArgon2Params())
}

// Hash hashes a secret with a freshly generated random salt
func (h *SecretHasher) Hash(secret string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return h.HashWithSalt(secret, salt), nil
}

// HashWithSalt hashes a secret with the given salt using the hasher's parameters
func (h *SecretHasher) HashWithSalt(secret string, salt []byte) string {
	return encodeHash(h.params, salt, secret)
}

// SaltOf extracts the salt embedded in an encoded hash
func (h *SecretHasher) SaltOf(encoded string) ([]byte, error) {
	_, salt, _, err := decodeHash(encoded)
	return salt, err
}

// Matches reports whether secret hashes to stored using the salt and
// parameters embedded in stored. Empty or malformed hashes never match.
func (h *SecretHasher) Matches(secret, stored string) bool {
	if stored == "" {
		return false
	}

	params, salt, key, err := decodeHash(stored)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(secret), salt, params.Time, params.Memory, params.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1
}

func encodeHash(p Argon2Params, salt []byte, secret string) string {
	key := argon2.IDKey([]byte(secret), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decodeHash(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return p, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrMalformedHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrMalformedHash
	}

	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))
	return p, salt, key, nil
}
