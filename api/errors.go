package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmcleod/authgate/authn"
)

// User-facing failure messages. Credential failures use one fixed phrase
// per login family so responses never disclose which part of the identity
// or secret was wrong.
const (
	msgNotAuthenticated   = "Not authenticated."
	msgCredentialMismatch = "The email address and password combination is incorrect."
	msgAuthRequired       = "Authentication required."
	msgNotAuthorized      = "Not authorized."
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// mapError translates domain errors to HTTP statuses for handlers with no
// route-specific messaging.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authn.ErrNotAuthenticated):
		writeError(w, http.StatusBadRequest, msgNotAuthenticated)
	case errors.Is(err, authn.ErrMultifactorRequired):
		writeError(w, http.StatusBadRequest, msgNotAuthenticated)
	case errors.Is(err, authn.ErrStateConflict):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, authn.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, authn.ErrNoRequirements):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
