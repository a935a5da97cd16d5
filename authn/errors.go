package authn

import "errors"

var (
	// ErrNotAuthenticated is returned for any credential mismatch: wrong
	// secret, wrong challenge, unknown identity, or unmet multifactor
	// requirements. It is deliberately uniform so callers cannot learn
	// which part of the attempt was wrong.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrMultifactorRequired is returned when a single factor verified
	// correctly but the account mandates additional factors. The caller
	// must drive the authenticate + multifactor login sequence instead.
	ErrMultifactorRequired = errors.New("multifactor authentication required")

	// ErrStateConflict is returned when a ledger merge targets a different
	// account than the one already recorded in the session. The login
	// sequence must be restarted.
	ErrStateConflict = errors.New("session authentication state conflict")

	// ErrNoRequirements is returned when a multifactor login is attempted
	// for an account with no declared required authentication methods.
	// This is a misconfiguration or misuse, not a credential failure.
	ErrNoRequirements = errors.New("account has no required authentication methods")

	// ErrNotFound is returned when a requested token or identity has no
	// record.
	ErrNotFound = errors.New("not found")

	// ErrUnknownLoginType is returned when a login request names a type
	// outside the closed strategy set.
	ErrUnknownLoginType = errors.New("unknown login type")
)
