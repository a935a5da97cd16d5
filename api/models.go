package api

import "github.com/jmcleod/authgate/authn"

// ErrorResponse is the JSON body for all error statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateTokenRequest is the JSON body for POST /authn/tokens/{type}.
type CreateTokenRequest struct {
	Account                       string            `json:"account,omitempty"`
	Email                         string            `json:"email,omitempty"`
	Hash                          string            `json:"hash,omitempty"`
	AuthenticationMethod          string            `json:"authenticationMethod,omitempty"`
	RequiredAuthenticationMethods []string          `json:"requiredAuthenticationMethods,omitempty"`
	TypeOptions                   map[string]string `json:"typeOptions,omitempty"`
}

// HashParametersResponse is returned from
// GET /authn/tokens/{type}/hash-parameters.
type HashParametersResponse struct {
	HashParameters authn.HashParameters `json:"hashParameters"`
}

// AuthenticateRequest is the JSON body for POST /authn/token/authenticate.
type AuthenticateRequest struct {
	Type      string `json:"type"`
	Account   string `json:"account,omitempty"`
	Email     string `json:"email,omitempty"`
	Hash      string `json:"hash,omitempty"`
	Challenge string `json:"challenge,omitempty"`
}

// AuthenticateResponse is returned from POST /authn/token/authenticate.
type AuthenticateResponse struct {
	Account                       string   `json:"account"`
	Authenticated                 bool     `json:"authenticated"`
	AuthenticatedMethods          []string `json:"authenticatedMethods"`
	RequiredAuthenticationMethods []string `json:"requiredAuthenticationMethods"`
}

// LoginRequest is the JSON body for POST /authn/token/login.
type LoginRequest struct {
	Type      string `json:"type"`
	Account   string `json:"account,omitempty"`
	Email     string `json:"email,omitempty"`
	Hash      string `json:"hash,omitempty"`
	Challenge string `json:"challenge,omitempty"`
}

// LoginResponse is returned from POST /authn/token/login.
type LoginResponse struct {
	Account string `json:"account"`
}

// RequirementsResponse is returned from GET /authn/token/requirements.
type RequirementsResponse struct {
	RequiredAuthenticationMethods []string `json:"requiredAuthenticationMethods"`
}

// SetRequirementsRequest is the JSON body for POST /authn/token/requirements.
type SetRequirementsRequest struct {
	Account                       string   `json:"account"`
	RequiredAuthenticationMethods []string `json:"requiredAuthenticationMethods"`
}

// RegistrationStatusResponse is returned from
// GET /authn/token/client/registration.
type RegistrationStatusResponse struct {
	Registered bool `json:"registered"`
}

// SetRecoveryRequest is the JSON body for POST /authn/token/recovery.
type SetRecoveryRequest struct {
	Account       string `json:"account"`
	RecoveryEmail string `json:"recoveryEmail"`
}
