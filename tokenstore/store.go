// Package tokenstore implements authn.Backend over a storage.Repository:
// password, nonce, and totp token records, account policy metadata, and
// client-device registrations. Secrets are stored bcrypt-hashed; totp
// shared secrets are the only recoverable material kept.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmcleod/authgate/authn"
	"github.com/jmcleod/authgate/internal/util"
	"github.com/jmcleod/authgate/storage"
)

const (
	namespace     = "authn"
	recordAccount = "ACCOUNT"
	recordEmail   = "EMAIL"
	recordToken   = "TOKEN"
	recordClient  = "CLIENT"

	nonceLength = 9
	nonceTTL    = 15 * time.Minute
)

// Notification describes a token-creation event delivered to the notifier.
// Code carries the nonce secret for out-of-band delivery (email/SMS); it is
// never returned over the HTTP surface.
type Notification struct {
	Account string
	Email   string
	Type    string
	Code    string
}

// Store is a reference token backend. Production deployments typically
// point authn at a dedicated token service instead; Store exists so the
// module is runnable and testable end to end.
type Store struct {
	repo   storage.Repository
	notify func(ctx context.Context, n Notification)
	now    func() time.Time
}

var _ authn.Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the callback invoked after token creation, e.g. to
// email a nonce code to the user. The callback must not block.
func WithNotifier(fn func(ctx context.Context, n Notification)) Option {
	return func(s *Store) { s.notify = fn }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a token backend over the given repository.
func NewStore(repo storage.Repository, opts ...Option) *Store {
	s := &Store{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type accountRecord struct {
	ID                            string   `json:"id"`
	Email                         string   `json:"email"`
	RequiredAuthenticationMethods []string `json:"requiredAuthenticationMethods,omitempty"`
	RecoveryEmail                 string   `json:"recoveryEmail,omitempty"`
}

type emailIndexRecord struct {
	AccountID string `json:"accountId"`
}

// CreateAccount registers a new account with the given id and email. The
// email is unicode-normalized before indexing.
func (s *Store) CreateAccount(ctx context.Context, id, email string) error {
	if id == "" {
		id = uuid.NewString()
	}
	email = util.Normalize(email)
	record := accountRecord{ID: id, Email: email}
	if err := s.putJSON(recordAccount, id, record); err != nil {
		return err
	}
	if email != "" {
		if err := s.putJSON(recordEmail, email, emailIndexRecord{AccountID: id}); err != nil {
			return err
		}
	}
	return nil
}

// Account resolves an account by id or email.
func (s *Store) Account(ctx context.Context, account, email string) (*authn.Principal, error) {
	record, err := s.resolveAccount(account, email)
	if err != nil {
		return nil, err
	}
	return &authn.Principal{AccountID: record.ID, Email: record.Email}, nil
}

// Requirements returns the account's required authentication methods.
func (s *Store) Requirements(ctx context.Context, account string) ([]string, error) {
	record, err := s.resolveAccount(account, "")
	if err != nil {
		return nil, err
	}
	return record.RequiredAuthenticationMethods, nil
}

// SetRequirements replaces the account's required authentication methods.
func (s *Store) SetRequirements(ctx context.Context, account string, methods []string) error {
	record, err := s.resolveAccount(account, "")
	if err != nil {
		return err
	}
	record.RequiredAuthenticationMethods = methods
	return s.putJSON(recordAccount, record.ID, record)
}

// SetRecoveryEmail sets the account's recovery email address.
func (s *Store) SetRecoveryEmail(ctx context.Context, account, recoveryEmail string) error {
	record, err := s.resolveAccount(account, "")
	if err != nil {
		return err
	}
	record.RecoveryEmail = util.Normalize(recoveryEmail)
	return s.putJSON(recordAccount, record.ID, record)
}

func (s *Store) resolveAccount(account, email string) (*accountRecord, error) {
	if account == "" && email != "" {
		var idx emailIndexRecord
		if err := s.getJSON(recordEmail, util.Normalize(email), &idx); err != nil {
			return nil, err
		}
		account = idx.AccountID
	}
	if account == "" {
		return nil, authn.ErrNotFound
	}
	var record accountRecord
	if err := s.getJSON(recordAccount, account, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Store) putJSON(recordType, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s record: %w", recordType, err)
	}
	return s.repo.Put(namespace, recordType, id, data)
}

func (s *Store) getJSON(recordType, id string, v any) error {
	data, err := s.repo.Get(namespace, recordType, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return authn.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}
