package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jmcleod/authgate/authn"
	"github.com/jmcleod/authgate/internal/util"
	"github.com/jmcleod/authgate/storage"
)

type tokenRecord struct {
	ID                   string    `json:"id"`
	Type                 string    `json:"type"`
	AuthenticationMethod string    `json:"authenticationMethod"`
	Value                []byte    `json:"value,omitempty"`
	Salt                 string    `json:"salt,omitempty"`
	Iterations           int       `json:"iterations,omitempty"`
	TOTPSecret           string    `json:"totpSecret,omitempty"`
	ExpiresAt            time.Time `json:"expiresAt,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

func tokenKey(accountID, typ string) string {
	return accountID + ":" + typ
}

// SetToken creates or replaces the identity's token of the given type.
// Password tokens store a bcrypt of the client-side hash string; nonce
// tokens generate a single-use code delivered through the notifier; totp
// tokens return enrollment material exactly once.
func (s *Store) SetToken(ctx context.Context, req authn.SetTokenRequest) (*authn.SetTokenResult, error) {
	account, err := s.resolveAccount(req.Account, req.Email)
	if err != nil {
		return nil, err
	}

	method := req.AuthenticationMethod
	if method == "" {
		method = req.Type
	}
	record := tokenRecord{
		ID:                   uuid.NewString(),
		Type:                 req.Type,
		AuthenticationMethod: method,
		CreatedAt:            s.now(),
	}
	result := &authn.SetTokenResult{TokenID: record.ID}
	notification := Notification{Account: account.ID, Email: account.Email, Type: req.Type}

	switch req.Type {
	case authn.TypePassword:
		if req.Hash == "" {
			return nil, fmt.Errorf("password token requires a hash")
		}
		params, err := parseHashParameters(req.Hash)
		if err != nil {
			return nil, err
		}
		value, err := bcrypt.GenerateFromPassword(bcryptInput(req.Hash), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing token value: %w", err)
		}
		record.Value = value
		record.Salt = params.Salt
		record.Iterations = params.Iterations

	case authn.TypeNonce:
		code, err := util.RandomChars(nonceLength)
		if err != nil {
			return nil, err
		}
		value, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing token value: %w", err)
		}
		record.Value = value
		record.ExpiresAt = s.now().Add(nonceTTL)
		notification.Code = code

	case authn.TypeTOTP:
		secret, err := generateTOTPSecret()
		if err != nil {
			return nil, err
		}
		record.TOTPSecret = secret
		label := account.Email
		if label == "" {
			label = account.ID
		}
		result.Secret = secret
		result.OTPAuthURL = otpAuthURL(secret, label)

	default:
		return nil, fmt.Errorf("unknown token type %q", req.Type)
	}

	if req.RequiredAuthenticationMethods != nil {
		account.RequiredAuthenticationMethods = req.RequiredAuthenticationMethods
		if err := s.putJSON(recordAccount, account.ID, account); err != nil {
			return nil, err
		}
	}

	if err := s.putJSON(recordToken, tokenKey(account.ID, req.Type), record); err != nil {
		return nil, err
	}

	if s.notify != nil {
		// Delivery must not block or fail token creation.
		go s.notify(ctx, notification)
	}
	return result, nil
}

// HashParameters returns the parameters a client needs to reproduce the
// stored hash for the identity's token of the given type. Token types with
// no client-side hashing (totp) report no record.
func (s *Store) HashParameters(ctx context.Context, typ, account, email string) (*authn.HashParameters, error) {
	acct, err := s.resolveAccount(account, email)
	if err != nil {
		return nil, err
	}
	var record tokenRecord
	if err := s.getJSON(recordToken, tokenKey(acct.ID, typ), &record); err != nil {
		return nil, err
	}
	if record.Salt == "" {
		return nil, authn.ErrNotFound
	}
	return &authn.HashParameters{
		Algorithm:  hashAlgorithm,
		Salt:       record.Salt,
		Iterations: record.Iterations,
	}, nil
}

// RemoveToken deletes the account's token of the given type. When tokenID
// is non-empty it must match the stored token's id.
func (s *Store) RemoveToken(ctx context.Context, typ, account, tokenID string) error {
	acct, err := s.resolveAccount(account, "")
	if err != nil {
		return err
	}
	key := tokenKey(acct.ID, typ)
	var record tokenRecord
	if err := s.getJSON(recordToken, key, &record); err != nil {
		return err
	}
	if tokenID != "" && tokenID != record.ID {
		return authn.ErrNotFound
	}
	return s.deleteRecord(recordToken, key)
}

// VerifyToken verifies one factor against the stored token. Every failure
// path returns authn.ErrNotAuthenticated so unknown identities, missing
// tokens, and wrong secrets are indistinguishable to callers.
func (s *Store) VerifyToken(ctx context.Context, req authn.VerifyRequest) (*authn.VerifyResult, error) {
	account, err := s.resolveAccount(req.Account, req.Email)
	if err != nil {
		if errors.Is(err, authn.ErrNotFound) {
			return nil, authn.ErrNotAuthenticated
		}
		return nil, err
	}

	key := tokenKey(account.ID, req.Type)
	var record tokenRecord
	if err := s.getJSON(recordToken, key, &record); err != nil {
		if errors.Is(err, authn.ErrNotFound) {
			return nil, authn.ErrNotAuthenticated
		}
		return nil, err
	}

	switch req.Type {
	case authn.TypePassword:
		if req.Hash == "" || bcrypt.CompareHashAndPassword(record.Value, bcryptInput(req.Hash)) != nil {
			return nil, authn.ErrNotAuthenticated
		}

	case authn.TypeNonce:
		if !record.ExpiresAt.IsZero() && s.now().After(record.ExpiresAt) {
			_ = s.deleteRecord(recordToken, key)
			return nil, authn.ErrNotAuthenticated
		}
		secret := req.Challenge
		if secret == "" {
			secret = req.Hash
		}
		if secret == "" || bcrypt.CompareHashAndPassword(record.Value, []byte(secret)) != nil {
			return nil, authn.ErrNotAuthenticated
		}
		// Nonces are single use.
		_ = s.deleteRecord(recordToken, key)

	case authn.TypeTOTP:
		if !verifyTOTPCode(record.TOTPSecret, req.Challenge, s.now()) {
			return nil, authn.ErrNotAuthenticated
		}

	default:
		return nil, authn.ErrNotAuthenticated
	}

	return &authn.VerifyResult{
		AccountID: account.ID,
		Email:     account.Email,
		Method:    record.AuthenticationMethod,
	}, nil
}

func (s *Store) deleteRecord(recordType, id string) error {
	err := s.repo.Delete(namespace, recordType, id)
	if err != nil && errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}
