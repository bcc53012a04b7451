package secure_test

import (
	"encoding/json"
	"testing"
	"time"

	"marketplace-chat/secure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sealToken(t *testing.T, token secure.ImageToken) string {
	t.Helper()
	payload, err := json.Marshal(token)
	require.NoError(t, err)
	sealed, err := secure.Encrypt(string(payload))
	require.NoError(t, err)
	return sealed
}

func TestImageTokenRoundTrip(t *testing.T) {
	sealed, err := secure.IssueImageToken("ab12cd34.jpg", 7, 3)
	require.NoError(t, err)
	assert.True(t, secure.IsEncrypted(sealed))

	token, err := secure.DecodeImageToken(sealed)
	require.NoError(t, err)

	assert.Equal(t, "ab12cd34.jpg", token.Path)
	assert.Equal(t, uint(7), token.MessageID)
	assert.Equal(t, uint(3), token.ConversationID)
	assert.WithinDuration(t, time.Now().Add(secure.ImageTokenTTL), token.ExpiresAt, time.Minute)
}

func TestImageTokenExpired(t *testing.T) {
	sealed := sealToken(t, secure.ImageToken{
		Path:           "ab12cd34.jpg",
		MessageID:      7,
		ConversationID: 3,
		ExpiresAt:      time.Now().Add(-time.Minute),
	})

	_, err := secure.DecodeImageToken(sealed)
	assert.ErrorIs(t, err, secure.ErrTokenExpired)
}

func TestImageTokenMalformed(t *testing.T) {
	notJSON, err := secure.Encrypt("definitely not a token")
	require.NoError(t, err)

	missingFields := sealToken(t, secure.ImageToken{
		Path:      "ab12cd34.jpg",
		ExpiresAt: time.Now().Add(time.Minute),
	})

	escapingPath := sealToken(t, secure.ImageToken{
		Path:           "../../etc/passwd",
		MessageID:      7,
		ConversationID: 3,
		ExpiresAt:      time.Now().Add(time.Minute),
	})

	for name, value := range map[string]string{
		"unencrypted":   `{"path":"ab12cd34.jpg","message_id":7,"conversation_id":3}`,
		"not json":      notJSON,
		"missing ids":   missingFields,
		"path escape":   escapingPath,
		"empty":         "",
		"broken cipher": secure.Prefix + "AAAA",
	} {
		_, err := secure.DecodeImageToken(value)
		assert.ErrorIs(t, err, secure.ErrTokenMalformed, name)
	}
}
