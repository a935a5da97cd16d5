// Package authn implements the multi-factor authentication core: the
// session-scoped ledger of satisfied authentication methods, the
// requirement satisfaction policy, and the login strategies that
// adjudicate single-factor and multifactor attempts against a token
// backend.
package authn
