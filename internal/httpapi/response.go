package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BrandonDHaskell/gatepass/internal/auth"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/notify"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/report"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/service"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

// apiError maps a service error to an HTTP status and error code.  ok is
// false for errors the handler should log and report as internal.
func apiError(err error) (status int, code string, ok bool) {
	switch {
	case errors.Is(err, service.ErrMalformed):
		return http.StatusBadRequest, "invalid_qr", true
	case errors.Is(err, service.ErrBadSignature),
		errors.Is(err, service.ErrExpired),
		errors.Is(err, service.ErrIssuedInFuture):
		return http.StatusForbidden, "invalid_credential", true
	case errors.Is(err, service.ErrPersonInactive):
		return http.StatusForbidden, "person_inactive", true
	case errors.Is(err, service.ErrSuperseded):
		return http.StatusForbidden, "credential_superseded", true
	case errors.Is(err, service.ErrDuplicateScan):
		return http.StatusConflict, "duplicate_scan", true
	case errors.Is(err, service.ErrPhoneTaken):
		return http.StatusConflict, "phone_taken", true
	case errors.Is(err, service.ErrUnknownPerson):
		return http.StatusNotFound, "unknown_person", true
	case errors.Is(err, service.ErrReportNotFound):
		return http.StatusNotFound, "report_not_found", true
	case errors.Is(err, service.ErrInvalidName):
		return http.StatusBadRequest, "invalid_name", true
	case errors.Is(err, service.ErrInvalidPhone):
		return http.StatusBadRequest, "invalid_phone", true
	case errors.Is(err, service.ErrInvalidLocation):
		return http.StatusBadRequest, "invalid_location", true
	case errors.Is(err, service.ErrInvalidTemplate):
		return http.StatusBadRequest, "invalid_template", true
	case errors.Is(err, service.ErrInvalidRange):
		return http.StatusBadRequest, "invalid_range", true
	case errors.Is(err, service.ErrPersonRequired):
		return http.StatusBadRequest, "person_required", true
	case errors.Is(err, report.ErrUnknownType):
		return http.StatusBadRequest, "unknown_report_type", true
	case errors.Is(err, service.ErrAttachmentTooLarge):
		return http.StatusRequestEntityTooLarge, "attachment_too_large", true
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "unauthorized", true
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, "forbidden", true
	}
	var gw *notify.GatewayError
	if errors.As(err, &gw) {
		return http.StatusBadGateway, "gateway_error", true
	}
	return http.StatusInternalServerError, "internal_error", false
}
