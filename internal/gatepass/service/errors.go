package service

import (
	"errors"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/notify"
)

var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrInvalidLocation = errors.New("invalid location")
	ErrPhoneTaken      = errors.New("phone number already registered")
	ErrUnknownPerson   = errors.New("unknown person")
	ErrPersonInactive  = errors.New("person is inactive")

	ErrSuperseded    = errors.New("credential has been replaced by a newer one")
	ErrDuplicateScan = errors.New("duplicate scan")

	ErrInvalidTemplate = errors.New("invalid message template")

	ErrInvalidRange   = errors.New("invalid date range")
	ErrPersonRequired = errors.New("person_id is required for this report")
	ErrReportNotFound = errors.New("report not found")
)

// Scan failures come straight from the credential package so callers can
// match them with errors.Is without a second set of sentinels.
var (
	ErrMalformed      = credential.ErrMalformed
	ErrBadSignature   = credential.ErrBadSignature
	ErrExpired        = credential.ErrExpired
	ErrIssuedInFuture = credential.ErrIssuedInFuture

	ErrAttachmentTooLarge = notify.ErrAttachmentTooLarge
)

// ScanMessage is the text a scanner shows for a failed scan.
func ScanMessage(err error) string {
	switch {
	case errors.Is(err, ErrMalformed):
		return "invalid QR code"
	case errors.Is(err, ErrBadSignature), errors.Is(err, ErrExpired), errors.Is(err, ErrIssuedInFuture):
		return "expired or forged QR code"
	case errors.Is(err, ErrUnknownPerson):
		return "person is not registered"
	case errors.Is(err, ErrPersonInactive):
		return "person is deactivated"
	case errors.Is(err, ErrSuperseded):
		return "QR code was reissued; use the latest one"
	case errors.Is(err, ErrDuplicateScan):
		return "already scanned, please wait"
	case errors.Is(err, ErrInvalidLocation):
		return "invalid location"
	default:
		return "scan failed"
	}
}
