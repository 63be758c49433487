package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
)

var (
	ErrInvalidKeyLength = errors.New("credential: key must be 32 bytes")
	ErrCiphertext       = errors.New("credential: ciphertext too short")
)

// Sealer encrypts PII columns at rest and computes a deterministic lookup
// key so sealed values can still be matched for equality.
type Sealer struct {
	aead      cipher.AEAD
	lookupKey []byte
}

func NewSealer(sealKey, lookupKey []byte) (*Sealer, error) {
	if len(sealKey) != 32 || len(lookupKey) == 0 {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(sealKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: gcm, lookupKey: append([]byte(nil), lookupKey...)}, nil
}

// Seal returns base64(nonce || ciphertext).
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ct := s.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(append(nonce, ct...)), nil
}

func (s *Sealer) Open(sealed string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	ns := s.aead.NonceSize()
	if len(blob) < ns {
		return "", ErrCiphertext
	}
	pt, err := s.aead.Open(nil, blob[:ns], blob[ns:], nil)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// LookupKey is hex(HMAC-SHA256(lookupKey, v)).
func (s *Sealer) LookupKey(v string) string {
	mac := hmac.New(sha256.New, s.lookupKey)
	mac.Write([]byte(v))
	return hex.EncodeToString(mac.Sum(nil))
}
