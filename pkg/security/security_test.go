package security_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playdepot/playdepot-backend/pkg/security"
)

var alnum8 = regexp.MustCompile(`^[A-Za-z0-9]{8}$`)

func TestRandomAlphanumeric(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		token, err := security.RandomAlphanumeric(8)
		require.NoError(t, err)
		assert.Regexp(t, alnum8, token)
		seen[token] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)

	_, err := security.RandomAlphanumeric(0)
	assert.Error(t, err)
}

func TestHashCardNumber(t *testing.T) {
	h := security.HashCardNumber("4242424242424242")
	assert.Len(t, h, 64)
	assert.Equal(t, h, security.HashCardNumber("4242424242424242"))
	assert.NotEqual(t, h, security.HashCardNumber("4242424242424241"))
	assert.NotContains(t, h, "4242424242424242")
}

func TestCardCipherRoundTrip(t *testing.T) {
	c, err := security.NewCardCipher("test-secret")
	require.NoError(t, err)

	blob, err := c.Encrypt([]byte("4242424242424242"), []byte("user:1"))
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "4242424242424242")

	plain, err := c.Decrypt(blob, []byte("user:1"))
	require.NoError(t, err)
	assert.Equal(t, "4242424242424242", string(plain))

	again, err := c.Encrypt([]byte("4242424242424242"), []byte("user:1"))
	require.NoError(t, err)
	assert.NotEqual(t, blob, again, "nonces must differ")
}

func TestCardCipherRejectsTampering(t *testing.T) {
	c, err := security.NewCardCipher("test-secret")
	require.NoError(t, err)
	blob, err := c.Encrypt([]byte("5500000000000004"), []byte("user:1"))
	require.NoError(t, err)

	_, err = c.Decrypt(blob, []byte("user:2"))
	assert.Error(t, err, "wrong owner binding")

	other, err := security.NewCardCipher("other-secret")
	require.NoError(t, err)
	_, err = other.Decrypt(blob, []byte("user:1"))
	assert.Error(t, err, "wrong key")

	_, err = c.Decrypt([]byte("short"), nil)
	assert.ErrorIs(t, err, security.ErrCiphertextTooShort)
}

func TestNewCardCipherRequiresSecret(t *testing.T) {
	_, err := security.NewCardCipher("")
	assert.Error(t, err)
}
