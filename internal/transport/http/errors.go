package httptransport

import (
	"encoding/json"
	"net/http"

	pkgerrors "metaregistry/pkg/errors"
)

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(toHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   string(code),
		"message": pkgerrors.MessageOf(err),
	})
}

func toHTTPStatus(code pkgerrors.Code) int {
	switch code {
	case pkgerrors.CodeUnauthorized:
		return http.StatusForbidden
	case pkgerrors.CodeValidation, pkgerrors.CodeBadRequest, pkgerrors.CodeUnsupportedDomain:
		return http.StatusBadRequest
	case pkgerrors.CodeReplay, pkgerrors.CodeInvalidState:
		return http.StatusConflict
	case pkgerrors.CodePayment:
		return http.StatusPaymentRequired
	case pkgerrors.CodeNotFound:
		return http.StatusNotFound
	case pkgerrors.CodePaused:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
