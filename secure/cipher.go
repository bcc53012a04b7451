package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"log"
	"strings"
	"sync"

	"marketplace-chat/config"
)

// Prefix marks a value produced by Encrypt. Rows written before encryption was
// introduced carry no prefix and pass through Decrypt unchanged.
const Prefix = "enc:v1:"

const nonceSize = 12

var (
	keyOnce sync.Once
	aeadKey []byte
)

// key derives the process-wide AES-256 key once from CHAT_CIPHER_SECRET.
func key() []byte {
	keyOnce.Do(func() {
		secret := config.Config("CHAT_CIPHER_SECRET")
		if secret == "" {
			log.Printf("CHAT_CIPHER_SECRET is not set, using insecure development key")
			secret = "marketplace-chat-dev-secret"
		}
		sum := sha256.Sum256([]byte(secret))
		aeadKey = sum[:]
	})
	return aeadKey
}

func gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(key())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// IsEncrypted reports whether value carries the ciphertext marker. It checks
// the prefix only; it does not prove the payload decrypts.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// Encrypt seals plaintext with a fresh random nonce and returns
// Prefix + base64(nonce || ciphertext || tag).
func Encrypt(plaintext string) (string, error) {
	aead, err := gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. An untagged value is legacy plaintext and comes
// back unchanged. A tagged value that is malformed or fails integrity checks
// also comes back unchanged after a warning log, so callers can detect failure
// by the prefix still being present.
func Decrypt(value string) string {
	if !IsEncrypted(value) {
		return value
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		log.Printf("cipher: undecodable payload: %v", err)
		return value
	}
	if len(raw) <= nonceSize {
		log.Printf("cipher: payload too short")
		return value
	}

	aead, err := gcm()
	if err != nil {
		log.Printf("cipher: %v", err)
		return value
	}

	plaintext, err := aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		log.Printf("cipher: integrity check failed: %v", err)
		return value
	}

	return string(plaintext)
}
