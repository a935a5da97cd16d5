package api

import (
	"net/http"
	"time"
)

const (
	// registrationCookieName carries the client-registration identifier.
	// It is written once, when a token-client-registration method is
	// first satisfied, and read on later authenticate and token-creation
	// calls.
	registrationCookieName = "cid"
	registrationCookieTTL  = 30 * 24 * time.Hour
)

// clientIDFromRequest returns the registration cookie's client id, or ""
// when the request carries none.
func clientIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(registrationCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (a *API) writeRegistrationCookie(w http.ResponseWriter, r *http.Request, clientID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     registrationCookieName,
		Value:    clientID,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(registrationCookieTTL),
	})
}
