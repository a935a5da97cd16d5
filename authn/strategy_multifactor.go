package authn

import (
	"context"
	"errors"
	"fmt"
)

// MultifactorStrategy adjudicates the second phase of a multifactor login.
// It inspects no credential material: the session ledger built by prior
// authenticate calls is checked against the account's required
// authentication methods. Finalizing the session is the caller's job; this
// strategy only decides.
type MultifactorStrategy struct {
	Backend Backend
}

var _ Strategy = (*MultifactorStrategy)(nil)

func (s *MultifactorStrategy) Authenticate(ctx context.Context, creds Credentials) (*Principal, error) {
	ledger := creds.Ledger
	if ledger.AccountID == "" {
		// No login sequence in progress; fail, not error.
		return nil, ErrNotAuthenticated
	}

	// The requested target must be the account the ledger was built for;
	// a ledger for one account never finalizes a login as another.
	if creds.Account != "" && creds.Account != ledger.AccountID {
		return nil, ErrNotAuthenticated
	}
	if creds.Email != "" {
		target, err := s.Backend.Account(ctx, "", creds.Email)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrNotAuthenticated
			}
			return nil, fmt.Errorf("resolving login target: %w", err)
		}
		if target.AccountID != ledger.AccountID {
			return nil, ErrNotAuthenticated
		}
	}

	required, err := s.Backend.Requirements(ctx, ledger.AccountID)
	if err != nil {
		return nil, fmt.Errorf("loading authentication requirements: %w", err)
	}
	if len(required) == 0 {
		// Multifactor login is not permitted for accounts that never
		// declared requirements; this is misuse, not a wrong credential.
		return nil, ErrNoRequirements
	}

	if !RequirementsMet(required, ledger.AuthenticatedMethods) {
		return nil, ErrNotAuthenticated
	}

	account, err := s.Backend.Account(ctx, ledger.AccountID, "")
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return account, nil
}
