package credential

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformed      = errors.New("credential: malformed payload")
	ErrBadSignature   = errors.New("credential: signature mismatch")
	ErrExpired        = errors.New("credential: expired")
	ErrIssuedInFuture = errors.New("credential: issued in the future")
)

const sep = "|"

// Payload is the text encoded in a person's QR code:
//
//	id|name|phone|issued_at_ms|hex(hmac)
type Payload struct {
	PersonID  string
	Name      string
	Phone     string
	IssuedAt  time.Time
	Signature string
}

// Message is the signed portion of the payload.
func (p Payload) Message() string {
	return strings.Join([]string{
		p.PersonID,
		p.Name,
		p.Phone,
		strconv.FormatInt(p.IssuedAt.UnixMilli(), 10),
	}, sep)
}

func (p Payload) String() string {
	return p.Message() + sep + p.Signature
}

// Parse splits raw scanner text into its five fields.  It does not check
// the signature; call Signer.Verify for that.
func Parse(raw string) (Payload, error) {
	parts := strings.Split(strings.TrimSpace(raw), sep)
	if len(parts) != 5 {
		return Payload{}, ErrMalformed
	}
	for _, p := range parts {
		if p == "" {
			return Payload{}, ErrMalformed
		}
	}

	ms, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Payload{}, ErrMalformed
	}

	return Payload{
		PersonID:  parts[0],
		Name:      parts[1],
		Phone:     parts[2],
		IssuedAt:  time.UnixMilli(ms).UTC(),
		Signature: parts[4],
	}, nil
}
