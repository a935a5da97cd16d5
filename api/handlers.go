package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmcleod/authgate/authn"
	"github.com/jmcleod/authgate/internal/util"
)

func validTokenType(typ string) bool {
	switch typ {
	case authn.TypePassword, authn.TypeNonce, authn.TypeTOTP:
		return true
	}
	return false
}

// rateLimitIdentity keys the login rate limiter: the account id when
// given, otherwise the normalized email.
func rateLimitIdentity(account, email string) string {
	if account != "" {
		return account
	}
	return util.Normalize(email)
}

// CreateToken handles POST /authn/tokens/{type}. Creating a nonce requires
// no authentication (it backs pre-auth email-code login); every other type
// requires an authenticated caller matching the target identity.
func (a *API) CreateToken(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	if !validTokenType(typ) {
		writeError(w, http.StatusBadRequest, "unknown token type")
		return
	}
	req, ok := decodeJSON[CreateTokenRequest](w, r, maxBodySize)
	if !ok {
		return
	}
	if req.Account == "" && req.Email == "" {
		writeError(w, http.StatusBadRequest, "account or email is required")
		return
	}
	if typ != authn.TypeNonce {
		if _, ok := a.requireSelf(w, r, req.Account, req.Email); !ok {
			return
		}
	} else {
		// Nonce creation is anonymous; an account's method label and
		// requirement policy can only change through authenticated calls.
		req.AuthenticationMethod = ""
		req.RequiredAuthenticationMethods = nil
	}

	result, err := a.backend.SetToken(r.Context(), authn.SetTokenRequest{
		Type:                          typ,
		Account:                       req.Account,
		Email:                         req.Email,
		Hash:                          req.Hash,
		AuthenticationMethod:          req.AuthenticationMethod,
		RequiredAuthenticationMethods: req.RequiredAuthenticationMethods,
		TypeOptions:                   req.TypeOptions,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	a.audit.logEvent(AuditTokenCreated, r, req.Account, slog.String("type", typ))
	if result.Secret != "" || result.OTPAuthURL != "" {
		writeJSON(w, http.StatusOK, result)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HashParameters handles GET /authn/tokens/{type}/hash-parameters. No
// authentication required: the lookup backs pre-auth login flows. The
// decoy derivation runs on every request so a hit and a miss do the same
// amount of work.
func (a *API) HashParameters(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	if !validTokenType(typ) {
		writeError(w, http.StatusBadRequest, "unknown token type")
		return
	}
	account := r.URL.Query().Get("account")
	email := r.URL.Query().Get("email")
	if account == "" && email == "" {
		writeError(w, http.StatusBadRequest, "account or email is required")
		return
	}

	decoy := a.decoyFn(account, email)

	params, err := a.backend.HashParameters(r.Context(), typ, account, email)
	if err != nil {
		if errors.Is(err, authn.ErrNotFound) {
			writeError(w, http.StatusNotFound, "token not found")
			return
		}
		mapError(w, err)
		return
	}
	if params == nil {
		params = &decoy
	}
	writeJSON(w, http.StatusOK, HashParametersResponse{HashParameters: *params})
}

// DeleteToken handles DELETE /authn/tokens/{type}.
func (a *API) DeleteToken(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	if !validTokenType(typ) {
		writeError(w, http.StatusBadRequest, "unknown token type")
		return
	}
	account := r.URL.Query().Get("account")
	if account == "" {
		writeError(w, http.StatusBadRequest, "account is required")
		return
	}
	if _, ok := a.requireSelf(w, r, account, ""); !ok {
		return
	}

	tokenID := r.URL.Query().Get("tokenId")
	if err := a.backend.RemoveToken(r.Context(), typ, account, tokenID); err != nil {
		mapError(w, err)
		return
	}
	a.audit.logEvent(AuditTokenDeleted, r, account, slog.String("type", typ))
	w.WriteHeader(http.StatusNoContent)
}

// Authenticate handles POST /authn/token/authenticate: verify one factor
// and merge it into the session ledger. A failed verification leaves the
// ledger untouched.
func (a *API) Authenticate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[AuthenticateRequest](w, r, maxBodySize)
	if !ok {
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	if req.Account == "" && req.Email == "" {
		writeError(w, http.StatusBadRequest, "account or email is required")
		return
	}

	identity := rateLimitIdentity(req.Account, req.Email)
	clientIP := a.extractClientIP(r)
	if blocked, retryAfter := a.ipLimiter.check(clientIP); blocked {
		a.audit.logFailure(AuditLoginRateLimited, r, "ip rate limited",
			slog.String("client_ip", clientIP))
		writeRateLimited(w, retryAfter)
		return
	}
	if blocked, retryAfter := a.rateLimiter.check(identity); blocked {
		a.audit.logFailure(AuditLoginRateLimited, r, "identity rate limited")
		writeRateLimited(w, retryAfter)
		return
	}

	ctx := r.Context()
	token := a.sessionToken(w, r)
	session, _ := a.sessions.Get(ctx, token)
	achieved := append([]string(nil), session.Ledger.AuthenticatedMethods...)

	// Fold in client-registration status for a returning device before
	// verification, so the backend sees the full achieved set.
	clientID := clientIDFromRequest(r)
	registrationFolded := false
	if clientID != "" && req.Email != "" && !session.Ledger.Has(authn.MethodClientRegistration) {
		registered, err := a.backend.ClientRegistered(ctx, req.Email, clientID)
		if err == nil && registered {
			registrationFolded = true
			achieved = append(achieved, authn.MethodClientRegistration)
		}
	}

	result, err := a.backend.VerifyToken(ctx, authn.VerifyRequest{
		Type:                 req.Type,
		Account:              req.Account,
		Email:                req.Email,
		Hash:                 req.Hash,
		Challenge:            req.Challenge,
		AuthenticatedMethods: achieved,
		ClientID:             clientID,
	})
	if err != nil {
		a.rateLimiter.recordFailure(identity)
		a.ipLimiter.recordFailure(clientIP)
		a.audit.logFailure(AuditAuthenticateFailure, r, "verification failed",
			slog.String("type", req.Type))
		if errors.Is(err, authn.ErrNotAuthenticated) {
			writeError(w, http.StatusBadRequest, msgNotAuthenticated)
			return
		}
		mapError(w, err)
		return
	}
	a.rateLimiter.recordSuccess(identity)
	a.ipLimiter.recordSuccess(clientIP)

	methods := []string{result.Method}
	if registrationFolded || session.Ledger.Has(authn.MethodClientRegistration) {
		methods = append(methods, authn.MethodClientRegistration)
	}

	// Satisfying the registration method binds this device: persist the
	// client id and hand it back as the cid cookie.
	if result.Method == authn.MethodClientRegistration {
		if clientID == "" {
			clientID = uuid.NewString()
		}
		if err := a.backend.RegisterClient(ctx, result.AccountID, clientID); err != nil {
			writeInternalError(w, "failed to register client", err)
			return
		}
		a.writeRegistrationCookie(w, r, clientID)
		a.audit.logEvent(AuditClientRegistered, r, result.AccountID)
	}

	merged, err := a.sessions.UpdateLedger(ctx, token, result.AccountID, methods)
	if err != nil {
		mapError(w, err)
		return
	}

	required, err := a.backend.Requirements(ctx, result.AccountID)
	if err != nil {
		writeInternalError(w, "failed to load authentication requirements", err)
		return
	}
	if required == nil {
		required = []string{}
	}

	a.audit.logEvent(AuditAuthenticateSuccess, r, result.AccountID,
		slog.String("method", result.Method))
	writeJSON(w, http.StatusOK, AuthenticateResponse{
		Account:                       result.AccountID,
		Authenticated:                 true,
		AuthenticatedMethods:          merged.AuthenticatedMethods,
		RequiredAuthenticationMethods: required,
	})
}

// Login handles POST /authn/token/login: dispatch to the strategy for the
// requested type, and on success finalize the session.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r, maxBodySize)
	if !ok {
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	strategy, ok := a.strategies.ForType(req.Type)
	if !ok {
		writeError(w, http.StatusBadRequest, authn.ErrUnknownLoginType.Error())
		return
	}

	token, session, _ := a.sessionFromRequest(r)

	identity := rateLimitIdentity(req.Account, req.Email)
	if identity == "" {
		identity = session.Ledger.AccountID
	}
	clientIP := a.extractClientIP(r)
	if blocked, retryAfter := a.ipLimiter.check(clientIP); blocked {
		a.audit.logFailure(AuditLoginRateLimited, r, "ip rate limited",
			slog.String("client_ip", clientIP))
		writeRateLimited(w, retryAfter)
		return
	}
	if identity != "" {
		if blocked, retryAfter := a.rateLimiter.check(identity); blocked {
			a.audit.logFailure(AuditLoginRateLimited, r, "identity rate limited")
			writeRateLimited(w, retryAfter)
			return
		}
	}

	principal, err := strategy.Authenticate(r.Context(), authn.Credentials{
		Type:      req.Type,
		Account:   req.Account,
		Email:     req.Email,
		Hash:      req.Hash,
		Challenge: req.Challenge,
		ClientID:  clientIDFromRequest(r),
		Ledger:    session.Ledger,
	})
	if err != nil {
		a.loginFailure(w, r, req.Type, identity, clientIP, err)
		return
	}
	a.rateLimiter.recordSuccess(identity)
	a.ipLimiter.recordSuccess(clientIP)

	// Finalize: the partial session (if any) is replaced by a fresh
	// authenticated one under a new token.
	ledger, mergeErr := session.Ledger.Merge(principal.AccountID, nil)
	if mergeErr != nil {
		ledger = authn.Ledger{AccountID: principal.AccountID}
	}
	if token != "" {
		a.sessions.Delete(r.Context(), token)
	}
	now := time.Now()
	expiresAt := now.Add(a.sessionTTL)
	newToken := uuid.NewString()
	a.sessions.Put(r.Context(), newToken, AuthSession{
		Ledger:         ledger,
		Authenticated:  true,
		ExpiresAt:      expiresAt,
		LastAccessedAt: now,
	})
	a.writeSessionCookie(w, r, newToken, expiresAt)

	a.audit.logEvent(AuditLoginSuccess, r, principal.AccountID,
		slog.String("type", req.Type))
	writeJSON(w, http.StatusOK, LoginResponse{Account: principal.AccountID})
}

// loginFailure maps a strategy failure onto the uniform user-facing
// responses: credential families get the mismatch phrasing, multifactor
// gets the generic one, misconfiguration is a server error.
func (a *API) loginFailure(w http.ResponseWriter, r *http.Request, typ, identity, clientIP string, err error) {
	switch {
	case errors.Is(err, authn.ErrNoRequirements):
		a.audit.logFailure(AuditLoginFailure, r, "no required authentication methods",
			slog.String("type", typ))
		writeError(w, http.StatusInternalServerError, authn.ErrNoRequirements.Error())
		return
	case errors.Is(err, authn.ErrStateConflict):
		a.audit.logFailure(AuditLoginFailure, r, "session state conflict",
			slog.String("type", typ))
		writeError(w, http.StatusBadRequest, authn.ErrStateConflict.Error())
		return
	case errors.Is(err, authn.ErrMultifactorRequired):
		// The factor verified but more are required; this is not a
		// credential mismatch.
		a.audit.logFailure(AuditLoginFailure, r, "multifactor required",
			slog.String("type", typ))
		writeError(w, http.StatusBadRequest, msgNotAuthenticated)
		return
	case errors.Is(err, authn.ErrNotAuthenticated):
		if identity != "" {
			a.rateLimiter.recordFailure(identity)
		}
		a.ipLimiter.recordFailure(clientIP)
		a.audit.logFailure(AuditLoginFailure, r, "not authenticated",
			slog.String("type", typ))
		if typ == authn.TypeMultifactor {
			writeError(w, http.StatusBadRequest, msgNotAuthenticated)
		} else {
			writeError(w, http.StatusBadRequest, msgCredentialMismatch)
		}
		return
	}
	writeInternalError(w, "login failed", err)
}

// Logout handles POST /authn/token/logout.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	var accountID string
	if token, session, ok := a.sessionFromRequest(r); ok {
		accountID = session.Ledger.AccountID
		a.sessions.Delete(r.Context(), token)
	}
	a.clearSessionCookie(w, r)
	a.audit.logEvent(AuditLogout, r, accountID)
	w.WriteHeader(http.StatusNoContent)
}

// GetRequirements handles GET /authn/token/requirements.
func (a *API) GetRequirements(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		writeError(w, http.StatusBadRequest, "account is required")
		return
	}
	if _, ok := a.requireSelf(w, r, account, ""); !ok {
		return
	}
	required, err := a.backend.Requirements(r.Context(), account)
	if err != nil {
		mapError(w, err)
		return
	}
	if required == nil {
		required = []string{}
	}
	writeJSON(w, http.StatusOK, RequirementsResponse{RequiredAuthenticationMethods: required})
}

// SetRequirements handles POST /authn/token/requirements.
func (a *API) SetRequirements(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SetRequirementsRequest](w, r, maxBodySize)
	if !ok {
		return
	}
	if req.Account == "" {
		writeError(w, http.StatusBadRequest, "account is required")
		return
	}
	if _, ok := a.requireSelf(w, r, req.Account, ""); !ok {
		return
	}
	if err := a.backend.SetRequirements(r.Context(), req.Account, req.RequiredAuthenticationMethods); err != nil {
		mapError(w, err)
		return
	}
	a.audit.logEvent(AuditRequirementsUpdated, r, req.Account)
	w.WriteHeader(http.StatusNoContent)
}

// RegistrationStatus handles GET /authn/token/client/registration: reports
// whether the cid cookie's client id is registered for the given email.
func (a *API) RegistrationStatus(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	registered := false
	if clientID := clientIDFromRequest(r); clientID != "" {
		var err error
		registered, err = a.backend.ClientRegistered(r.Context(), email, clientID)
		if err != nil {
			writeInternalError(w, "failed to check client registration", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, RegistrationStatusResponse{Registered: registered})
}

// SetRecovery handles POST /authn/token/recovery.
func (a *API) SetRecovery(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SetRecoveryRequest](w, r, maxBodySize)
	if !ok {
		return
	}
	if req.Account == "" || req.RecoveryEmail == "" {
		writeError(w, http.StatusBadRequest, "account and recoveryEmail are required")
		return
	}
	if _, ok := a.requireSelf(w, r, req.Account, ""); !ok {
		return
	}
	if err := a.backend.SetRecoveryEmail(r.Context(), req.Account, req.RecoveryEmail); err != nil {
		mapError(w, err)
		return
	}
	a.audit.logEvent(AuditRecoveryEmailSet, r, req.Account)
	w.WriteHeader(http.StatusNoContent)
}
