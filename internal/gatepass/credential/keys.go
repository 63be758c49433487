package credential

import (
	"crypto/sha256"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// DevSecret is used when no secret is configured and env=dev.
const DevSecret = "gatepass-dev-secret-do-not-use-in-prod"

const (
	infoSigning = "gatepass/credential-signing"
	infoSealing = "gatepass/field-sealing"
	infoLookup  = "gatepass/field-lookup"
	infoTokens  = "gatepass/admin-tokens"
)

var ErrNoSecret = errors.New("credential: master secret is required")

// Keys are the per-purpose keys derived from the master secret.
type Keys struct {
	Signing []byte
	Sealing []byte
	Lookup  []byte
	// Tokens signs admin and scanner JWTs when no jwt_secret is set.
	Tokens []byte
}

// DeriveKeys expands secret into independent 32-byte keys with
// HKDF-SHA256.
func DeriveKeys(secret string) (Keys, error) {
	if strings.TrimSpace(secret) == "" {
		return Keys{}, ErrNoSecret
	}

	var k Keys
	var err error
	if k.Signing, err = derive([]byte(secret), infoSigning); err != nil {
		return Keys{}, err
	}
	if k.Sealing, err = derive([]byte(secret), infoSealing); err != nil {
		return Keys{}, err
	}
	if k.Lookup, err = derive([]byte(secret), infoLookup); err != nil {
		return Keys{}, err
	}
	if k.Tokens, err = derive([]byte(secret), infoTokens); err != nil {
		return Keys{}, err
	}
	return k, nil
}

func derive(ikm []byte, info string) ([]byte, error) {
	h := hkdf.New(sha256.New, ikm, nil, []byte(info))
	out := make([]byte, 32)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}
