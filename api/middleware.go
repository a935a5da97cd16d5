package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmcleod/authgate/authn"
	"github.com/jmcleod/authgate/internal/util"
)

const sessionCookieName = "authgate_session"

// sessionFromRequest returns the session token and state for the request's
// session cookie, if one exists and is still live.
func (a *API) sessionFromRequest(r *http.Request) (string, AuthSession, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", AuthSession{}, false
	}
	session, ok := a.sessions.Get(r.Context(), cookie.Value)
	if !ok {
		return "", AuthSession{}, false
	}
	return cookie.Value, session, true
}

// sessionToken returns the request's session token, minting a fresh one
// (and writing the cookie) when the request carries none. The session
// record itself is created lazily by the first ledger merge.
func (a *API) sessionToken(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}
	token := uuid.NewString()
	a.writeSessionCookie(w, r, token, time.Now().Add(a.sessionTTL))
	return token
}

// principalFromRequest returns the authenticated principal for self-only
// routes: the session must have completed login. Partial ledgers do not
// authorize anything.
func (a *API) principalFromRequest(r *http.Request) (*authn.Principal, bool) {
	_, session, ok := a.sessionFromRequest(r)
	if !ok || !session.Authenticated || session.Ledger.AccountID == "" {
		return nil, false
	}
	principal, err := a.backend.Account(r.Context(), session.Ledger.AccountID, "")
	if err != nil {
		return nil, false
	}
	return principal, true
}

// requireSelf authorizes a self-only route: the caller must be
// authenticated and must match the target account or email. The failure
// responses are public-safe and already written when ok is false.
func (a *API) requireSelf(w http.ResponseWriter, r *http.Request, account, email string) (*authn.Principal, bool) {
	principal, ok := a.principalFromRequest(r)
	if !ok {
		writeError(w, http.StatusForbidden, msgAuthRequired)
		return nil, false
	}
	if account != "" && account != principal.AccountID {
		writeError(w, http.StatusForbidden, msgNotAuthorized)
		return nil, false
	}
	if account == "" {
		if email == "" || util.Normalize(email) != util.Normalize(principal.Email) {
			writeError(w, http.StatusForbidden, msgNotAuthorized)
			return nil, false
		}
	}
	return principal, true
}

func (a *API) writeSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// requestIsSecure reports whether the request arrived over TLS, either
// directly or via a trusted proxy. Forwarded scheme headers from untrusted
// peers are ignored, like the forwarded source IP headers.
func (a *API) requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if !a.fromTrustedProxy(r) {
		return false
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}
