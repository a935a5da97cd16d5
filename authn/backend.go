package authn

import "context"

// HashParameters describes how a client must pre-hash its secret before
// submitting it for verification. Returned by hash-parameter lookups so
// that login flows can run before any authentication.
type HashParameters struct {
	Algorithm  string `json:"algorithm"`
	Salt       string `json:"salt"`
	Iterations int    `json:"iterations"`
}

// SetTokenRequest describes a token to create for an account or email.
type SetTokenRequest struct {
	Type    string
	Account string
	Email   string
	// Hash is the client-side pre-hashed secret for password-style tokens.
	Hash string
	// AuthenticationMethod is the opaque method label this token satisfies
	// when verified. Defaults to the token type.
	AuthenticationMethod string
	// RequiredAuthenticationMethods, when non-nil, replaces the account's
	// required method set as part of token creation.
	RequiredAuthenticationMethods []string
	// TypeOptions carries type-specific creation options (e.g. nonce entry
	// style).
	TypeOptions map[string]string
}

// SetTokenResult is returned from token creation. Enrollment material is
// only present for token types that produce some (totp).
type SetTokenResult struct {
	TokenID        string          `json:"tokenId,omitempty"`
	Secret         string          `json:"secret,omitempty"`
	OTPAuthURL     string          `json:"otpAuthUrl,omitempty"`
	HashParameters *HashParameters `json:"hashParameters,omitempty"`
}

// VerifyRequest asks the backend to verify a single factor.
type VerifyRequest struct {
	Type      string
	Account   string
	Email     string
	Hash      string
	Challenge string
	// AuthenticatedMethods are the methods already satisfied in this
	// session, so the backend can fold in client registration status.
	AuthenticatedMethods []string
	// ClientID is the registration cookie value, if present.
	ClientID string
}

// VerifyResult identifies the account whose factor verified and the method
// label the verification satisfied.
type VerifyResult struct {
	AccountID string
	Email     string
	Method    string
}

// Principal is an authenticated account identity.
type Principal struct {
	AccountID string
	Email     string
}

// Backend is the external token service this module adapts. It owns token
// generation, verification, hashing, persistence, account policy metadata,
// and client registrations; this module only composes its operations.
type Backend interface {
	// SetToken creates (or replaces) a token of the given type.
	SetToken(ctx context.Context, req SetTokenRequest) (*SetTokenResult, error)

	// HashParameters returns the client-side hash parameters for the
	// identity's token of the given type, or ErrNotFound.
	HashParameters(ctx context.Context, typ, account, email string) (*HashParameters, error)

	// RemoveToken deletes the identity's token of the given type.
	// tokenID may narrow the deletion where a type holds several tokens.
	RemoveToken(ctx context.Context, typ, account, tokenID string) error

	// VerifyToken verifies one factor. A failed verification returns
	// ErrNotAuthenticated without revealing whether the identity or the
	// secret was wrong.
	VerifyToken(ctx context.Context, req VerifyRequest) (*VerifyResult, error)

	// Requirements returns the account's required authentication methods.
	Requirements(ctx context.Context, account string) ([]string, error)

	// SetRequirements replaces the account's required authentication
	// methods.
	SetRequirements(ctx context.Context, account string, methods []string) error

	// ClientRegistered reports whether the client id is registered and
	// authenticated for the email's account.
	ClientRegistered(ctx context.Context, email, clientID string) (bool, error)

	// RegisterClient marks the client id as registered for the account.
	RegisterClient(ctx context.Context, account, clientID string) error

	// SetRecoveryEmail sets the account's recovery email address.
	SetRecoveryEmail(ctx context.Context, account, recoveryEmail string) error

	// Account resolves an account by id or email.
	Account(ctx context.Context, account, email string) (*Principal, error)
}
