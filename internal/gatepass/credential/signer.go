package credential

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const (
	DefaultValidity = 24 * time.Hour
	DefaultSkew     = time.Minute
)

type Option func(*Signer)

// WithValidity sets how long an issued credential is accepted.
func WithValidity(d time.Duration) Option {
	return func(s *Signer) {
		if d > 0 {
			s.validity = d
		}
	}
}

// WithSkew sets how far in the future an issue time may be.
func WithSkew(d time.Duration) Option {
	return func(s *Signer) {
		if d >= 0 {
			s.skew = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// Signer issues and verifies HMAC-SHA256 signed payloads.
type Signer struct {
	key      []byte
	validity time.Duration
	skew     time.Duration
	now      func() time.Time
}

func NewSigner(key []byte, opts ...Option) *Signer {
	s := &Signer{
		key:      append([]byte(nil), key...),
		validity: DefaultValidity,
		skew:     DefaultSkew,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Signer) Validity() time.Duration { return s.validity }

// Issue stamps a new payload for the person at the current time.
func (s *Signer) Issue(personID, name, phone string) Payload {
	p := Payload{
		PersonID: personID,
		Name:     name,
		Phone:    phone,
		IssuedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	p.Signature = s.sign(p.Message())
	return p
}

// Verify checks the signature first, then the validity window.
func (s *Signer) Verify(p Payload) error {
	want := s.sign(p.Message())
	if !hmac.Equal([]byte(want), []byte(p.Signature)) {
		return ErrBadSignature
	}

	now := s.now().UTC()
	if p.IssuedAt.Sub(now) > s.skew {
		return ErrIssuedInFuture
	}
	if now.Sub(p.IssuedAt) > s.validity {
		return ErrExpired
	}
	return nil
}

// ExpiresAt reports when p stops being accepted.
func (s *Signer) ExpiresAt(p Payload) time.Time {
	return p.IssuedAt.Add(s.validity)
}

func (s *Signer) sign(msg string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}
