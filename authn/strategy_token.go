package authn

import (
	"context"
	"errors"
	"fmt"
)

// TokenStrategy verifies a single credential (password, nonce, or totp
// challenge) against the backend. It never completes a login for an
// account whose policy declares required authentication methods: a
// verified single factor is not sufficient in that case, and the caller
// must drive the authenticate + multifactor sequence instead.
type TokenStrategy struct {
	Backend Backend
}

var _ Strategy = (*TokenStrategy)(nil)

func (s *TokenStrategy) Authenticate(ctx context.Context, creds Credentials) (*Principal, error) {
	result, err := s.Backend.VerifyToken(ctx, VerifyRequest{
		Type:                 creds.Type,
		Account:              creds.Account,
		Email:                creds.Email,
		Hash:                 creds.Hash,
		Challenge:            creds.Challenge,
		AuthenticatedMethods: creds.Ledger.AuthenticatedMethods,
		ClientID:             creds.ClientID,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Unknown identity and wrong secret must be indistinguishable.
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	required, err := s.Backend.Requirements(ctx, result.AccountID)
	if err != nil {
		return nil, fmt.Errorf("loading authentication requirements: %w", err)
	}
	if len(required) > 0 {
		return nil, ErrMultifactorRequired
	}

	return &Principal{AccountID: result.AccountID, Email: result.Email}, nil
}
