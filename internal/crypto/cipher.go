// Package crypto wraps AES-256-GCM for the values the console keeps at
// rest: stored usernames and audit log lines. Tokens are self-describing
// ("ENC:" + base64), so persisted fields written before encryption was
// introduced pass through Decrypt unchanged.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// TokenPrefix marks a value as encrypted: ENC:base64(nonce || ciphertext).
const TokenPrefix = "ENC:"

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

var (
	ErrInvalidKeyLength = errors.New("invalid key length")
	ErrMalformedToken   = errors.New("malformed cipher token")
	ErrDecryptFailed    = errors.New("decryption failed")
)

// Outcome tags the result of a Decrypt call. The original system used
// decrypt exceptions as control flow; here the branch is explicit.
type Outcome int

const (
	// OutcomeDecrypted means the token carried the prefix and decrypted cleanly.
	OutcomeDecrypted Outcome = iota
	// OutcomePassthrough means the value never looked like ciphertext and was
	// returned unchanged (legacy plaintext rows).
	OutcomePassthrough
	// OutcomeFailed means the token looked encrypted but could not be
	// decrypted; the caller receives an empty string.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDecrypted:
		return "decrypted"
	case OutcomePassthrough:
		return "passthrough"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Cipher encrypts and decrypts opaque strings with a single symmetric key.
type Cipher struct {
	aead cipher.AEAD
}

// New builds a Cipher from a 32-byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyLength, len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Open loads the key file at path, generating it on first use, and
// returns a ready Cipher.
func Open(path string) (*Cipher, error) {
	key, err := LoadOrCreateKey(path)
	if err != nil {
		return nil, err
	}
	return New(key)
}

// Encrypt returns the token for plaintext. Empty input encrypts to an
// empty token.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return TokenPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values without the token prefix are returned
// unchanged with OutcomePassthrough; tokens that cannot be decrypted yield
// an empty string with OutcomeFailed so one corrupt row never blocks a
// listing pass.
func (c *Cipher) Decrypt(token string) (string, Outcome) {
	if token == "" {
		return "", OutcomePassthrough
	}
	if !strings.HasPrefix(token, TokenPrefix) {
		return token, OutcomePassthrough
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(token, TokenPrefix))
	if err != nil || len(raw) < c.aead.NonceSize() {
		return "", OutcomeFailed
	}

	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", OutcomeFailed
	}
	return string(plaintext), OutcomeDecrypted
}

// Value collapses Decrypt to its string result, for call sites that treat
// passthrough and decrypted values alike.
func (c *Cipher) Value(token string) string {
	v, _ := c.Decrypt(token)
	return v
}
