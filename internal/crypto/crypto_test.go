package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	enc, err := NewTokenEncryptor(key)
	require.NoError(t, err)

	sealed, err := enc.Encrypt("sk-live-123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "v1:"))
	assert.NotContains(t, sealed, "sk-live-123")

	again, err := enc.Encrypt("sk-live-123")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)

	plain, err := enc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk-live-123", plain)
}

func TestDecryptLegacyPlaintext(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	enc, err := NewTokenEncryptor(key)
	require.NoError(t, err)

	plain, err := enc.Decrypt("stored-before-key")
	require.NoError(t, err)
	assert.Equal(t, "stored-before-key", plain)
}

func TestDecryptWithWrongKey(t *testing.T) {
	k1, _ := GenerateKey()
	k2, _ := GenerateKey()
	a, err := NewTokenEncryptor(k1)
	require.NoError(t, err)
	b, err := NewTokenEncryptor(k2)
	require.NoError(t, err)

	sealed, err := a.Encrypt("secret")
	require.NoError(t, err)
	_, err = b.Decrypt(sealed)
	assert.Error(t, err)
}

func TestNewTokenEncryptorRejectsBadKeys(t *testing.T) {
	_, err := NewTokenEncryptor("")
	assert.Error(t, err)
	_, err = NewTokenEncryptor("not base64!")
	assert.Error(t, err)
	_, err = NewTokenEncryptor("c2hvcnQ=")
	assert.ErrorContains(t, err, "32 bytes")
}
