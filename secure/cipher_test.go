package secure_test

import (
	"strings"
	"testing"

	"marketplace-chat/secure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, plaintext := range []string{
		"hello",
		"",
		"is this still available?",
		"многоязычный текст 🙂",
		strings.Repeat("x", 4096),
	} {
		sealed, err := secure.Encrypt(plaintext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, secure.Decrypt(sealed))
	}
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	first, err := secure.Encrypt("same input")
	require.NoError(t, err)
	second, err := secure.Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestIsEncrypted(t *testing.T) {
	sealed, err := secure.Encrypt("payload")
	require.NoError(t, err)

	assert.True(t, secure.IsEncrypted(sealed))
	assert.False(t, secure.IsEncrypted("payload"))
	assert.False(t, secure.IsEncrypted("enc:v2:something"))
	assert.False(t, secure.IsEncrypted(""))
}

func TestDecryptLegacyPlaintextPassesThrough(t *testing.T) {
	legacy := "plain row written before encryption"
	assert.Equal(t, legacy, secure.Decrypt(legacy))
}

func TestDecryptTamperedValueReturnsInputUnchanged(t *testing.T) {
	sealed, err := secure.Encrypt("sensitive")
	require.NoError(t, err)

	// Flip one character of the base64 payload.
	raw := []byte(sealed)
	last := len(raw) - 1
	if raw[last] == 'A' {
		raw[last] = 'B'
	} else {
		raw[last] = 'A'
	}
	tampered := string(raw)

	got := secure.Decrypt(tampered)
	assert.Equal(t, tampered, got)
	assert.True(t, secure.IsEncrypted(got), "caller detects failure by the surviving prefix")
}

func TestDecryptMalformedValuesReturnInputUnchanged(t *testing.T) {
	for _, value := range []string{
		secure.Prefix + "not base64 at all!!!",
		secure.Prefix + "AAAA",
		secure.Prefix,
	} {
		assert.Equal(t, value, secure.Decrypt(value))
	}
}
