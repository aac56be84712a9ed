package security

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGenerator_Generate(t *testing.T) {
	gen := UUIDGenerator{}
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		secret := gen.Generate()
		parsed, err := uuid.Parse(secret)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), parsed.Version())
		assert.False(t, seen[secret], "duplicate secret %s", secret)
		seen[secret] = true
	}
}

func TestSecretHasher_HashAndMatch(t *testing.T) {
	h := NewDefaultSecretHasher()
	secret := uuid.NewString()

	hash, err := h.Hash(secret)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	assert.NotContains(t, hash, secret)

	assert.True(t, h.Matches(secret, hash))
	assert.False(t, h.Matches(uuid.NewString(), hash))
	assert.False(t, h.Matches(secret+"x", hash))
	assert.False(t, h.Matches("", hash))
}

func TestSecretHasher_DistinctSalts(t *testing.T) {
	h := NewDefaultSecretHasher()
	secret := "same-secret"

	first, err := h.Hash(secret)
	require.NoError(t, err)
	second, err := h.Hash(secret)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Matches(secret, first))
	assert.True(t, h.Matches(secret, second))
}

func TestSecretHasher_HashWithSaltIsDeterministic(t *testing.T) {
	h := NewDefaultSecretHasher()
	secret := "deterministic"

	stored, err := h.Hash(secret)
	require.NoError(t, err)

	salt, err := h.SaltOf(stored)
	require.NoError(t, err)
	assert.Len(t, salt, int(DefaultArgon2Params().SaltLen))

	assert.Equal(t, stored, h.HashWithSalt(secret, salt))
	assert.Equal(t, h.HashWithSalt(secret, salt), h.HashWithSalt(secret, salt))
	assert.NotEqual(t, stored, h.HashWithSalt("other", salt))
}

func TestSecretHasher_FailsClosed(t *testing.T) {
	h := NewDefaultSecretHasher()
	valid, err := h.Hash("secret")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	tests := []struct {
		name   string
		stored string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"bcrypt hash", "$2a$10$abcdefghijklmnopqrstuuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"},
		{"wrong algorithm", strings.Replace(valid, "argon2id", "argon2i", 1)},
		{"wrong version", strings.Replace(valid, "v=19", "v=16", 1)},
		{"zero params", strings.Join([]string{"", parts[1], parts[2], "m=0,t=0,p=0", parts[4], parts[5]}, "$")},
		{"bad salt encoding", strings.Join([]string{"", parts[1], parts[2], parts[3], "!!!", parts[5]}, "$")},
		{"missing key", strings.Join([]string{"", parts[1], parts[2], parts[3], parts[4], ""}, "$")},
		{"truncated", strings.Join(parts[:4], "$")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, h.Matches("secret", tt.stored))
		})
	}

	_, err = h.SaltOf("garbage")
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestNewSecretHasher_AppliesDefaults(t *testing.T) {
	h := NewSecretHasher(Argon2Params{Time: 2})
	assert.Equal(t, uint32(2), h.params.Time)
	assert.Equal(t, DefaultArgon2Params().Memory, h.params.Memory)
	assert.Equal(t, DefaultArgon2Params().KeyLen, h.params.KeyLen)
}
