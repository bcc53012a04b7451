package secure

import (
	"encoding/json"
	"regexp"
	"time"

	"github.com/pkg/errors"
)

// ImageTokenTTL bounds how long a minted image capability stays valid.
const ImageTokenTTL = 10 * time.Minute

var (
	ErrTokenMalformed = errors.New("image token malformed")
	ErrTokenExpired   = errors.New("image token expired")
)

var imagePathPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ImageToken is a self-contained bearer capability for one chat image.
// Nothing about it is persisted; authenticity comes from the cipher's
// integrity tag plus the caller's cross-check against the message row.
type ImageToken struct {
	Path           string    `json:"path"`
	MessageID      uint      `json:"message_id"`
	ConversationID uint      `json:"conversation_id"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// IssueImageToken mints an encrypted capability for the given image path,
// expiring ImageTokenTTL from now.
func IssueImageToken(path string, messageID uint, conversationID uint) (string, error) {
	token := ImageToken{
		Path:           path,
		MessageID:      messageID,
		ConversationID: conversationID,
		ExpiresAt:      time.Now().Add(ImageTokenTTL),
	}

	payload, err := json.Marshal(token)
	if err != nil {
		return "", errors.Wrap(err, "secure.IssueImageToken.Marshal")
	}
	return Encrypt(string(payload))
}

// DecodeImageToken decrypts and validates a capability up to the point where
// database state is needed: structure, expiry and path namespace. Callers
// must still cross-check the fields against the message row.
func DecodeImageToken(value string) (*ImageToken, error) {
	if !IsEncrypted(value) {
		// The legacy-plaintext shim in Decrypt must not open a forgery path
		// for unencrypted token payloads.
		return nil, ErrTokenMalformed
	}

	plaintext := Decrypt(value)
	if IsEncrypted(plaintext) {
		// Decrypt hands tagged input back unchanged when it cannot verify it.
		return nil, ErrTokenMalformed
	}

	token := new(ImageToken)
	if err := json.Unmarshal([]byte(plaintext), token); err != nil {
		return nil, ErrTokenMalformed
	}
	if token.Path == "" || token.MessageID == 0 || token.ConversationID == 0 || token.ExpiresAt.IsZero() {
		return nil, ErrTokenMalformed
	}

	if time.Now().After(token.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	if !imagePathPattern.MatchString(token.Path) {
		return nil, ErrTokenMalformed
	}

	return token, nil
}
