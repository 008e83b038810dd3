package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/errandly/errandly/internal/service"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// errStatus maps domain errors to HTTP status codes. Anything outside the
// taxonomy is an internal error.
func errStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrEligibilityDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPaymentCaptureFailed):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainErr(w http.ResponseWriter, err error) {
	writeErr(w, errStatus(err), err.Error())
}
