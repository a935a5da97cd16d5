package tokenstore

import (
	"context"
	"errors"

	"github.com/jmcleod/authgate/authn"
)

type clientRecord struct {
	Authenticated bool `json:"authenticated"`
}

func clientKey(accountID, clientID string) string {
	return accountID + ":" + clientID
}

// ClientRegistered reports whether the client id is registered and
// authenticated for the email's account. Unknown identities and unknown
// clients both read as unregistered.
func (s *Store) ClientRegistered(ctx context.Context, email, clientID string) (bool, error) {
	if clientID == "" {
		return false, nil
	}
	account, err := s.resolveAccount("", email)
	if err != nil {
		if errors.Is(err, authn.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	var record clientRecord
	if err := s.getJSON(recordClient, clientKey(account.ID, clientID), &record); err != nil {
		if errors.Is(err, authn.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return record.Authenticated, nil
}

// RegisterClient marks the client id as registered for the account.
func (s *Store) RegisterClient(ctx context.Context, account, clientID string) error {
	if clientID == "" {
		return errors.New("client id required")
	}
	acct, err := s.resolveAccount(account, "")
	if err != nil {
		return err
	}
	return s.putJSON(recordClient, clientKey(acct.ID, clientID), clientRecord{Authenticated: true})
}
