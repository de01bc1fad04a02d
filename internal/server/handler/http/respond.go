package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cristianszwarc/ludmin/internal/service"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondServiceError maps service failures onto HTTP statuses. Unknown
// errors collapse into a single opaque response so internals never leak.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotAllowed),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrCurrentPassword):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrIncorrectLogin),
		errors.Is(err, service.ErrPasswordConfirmation),
		errors.Is(err, service.ErrEmailInUse),
		errors.Is(err, service.ErrEmailInUseByOther),
		errors.Is(err, service.ErrInconsistentDevice),
		errors.Is(err, service.ErrDeviceNotLinked),
		errors.Is(err, service.ErrEmailNotRegistered),
		errors.Is(err, service.ErrNoActiveEmail),
		errors.Is(err, service.ErrNoResetRequest),
		errors.Is(err, service.ErrInvalidResetCode):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "unexpected")
	}
}
