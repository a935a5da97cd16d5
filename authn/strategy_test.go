package authn

import (
	"context"
	"errors"
	"testing"
)

// fakeBackend is a minimal Backend for strategy tests: one account, one
// valid hash/challenge pair, a configurable requirement set.
type fakeBackend struct {
	accountID   string
	email       string
	validHash   string
	method      string
	required    []string
	requireErr  error
	verifyCalls int
}

func (f *fakeBackend) VerifyToken(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	f.verifyCalls++
	if req.Hash != "" && req.Hash == f.validHash {
		method := f.method
		if method == "" {
			method = req.Type
		}
		return &VerifyResult{AccountID: f.accountID, Email: f.email, Method: method}, nil
	}
	return nil, ErrNotAuthenticated
}

func (f *fakeBackend) Requirements(ctx context.Context, account string) ([]string, error) {
	if f.requireErr != nil {
		return nil, f.requireErr
	}
	return f.required, nil
}

func (f *fakeBackend) Account(ctx context.Context, account, email string) (*Principal, error) {
	if account == f.accountID || email == f.email {
		return &Principal{AccountID: f.accountID, Email: f.email}, nil
	}
	return nil, ErrNotFound
}

func (f *fakeBackend) SetToken(context.Context, SetTokenRequest) (*SetTokenResult, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeBackend) HashParameters(context.Context, string, string, string) (*HashParameters, error) {
	return nil, ErrNotFound
}
func (f *fakeBackend) RemoveToken(context.Context, string, string, string) error { return nil }
func (f *fakeBackend) SetRequirements(ctx context.Context, account string, methods []string) error {
	f.required = methods
	return nil
}
func (f *fakeBackend) ClientRegistered(context.Context, string, string) (bool, error) {
	return false, nil
}
func (f *fakeBackend) RegisterClient(context.Context, string, string) error  { return nil }
func (f *fakeBackend) SetRecoveryEmail(context.Context, string, string) error { return nil }

func TestTokenStrategySuccessWithoutRequirements(t *testing.T) {
	backend := &fakeBackend{accountID: "acct-1", email: "a@example.com", validHash: "h1"}
	s := &TokenStrategy{Backend: backend}

	p, err := s.Authenticate(context.Background(), Credentials{
		Type: TypePassword, Email: "a@example.com", Hash: "h1",
	})
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if p.AccountID != "acct-1" {
		t.Fatalf("got principal %+v", p)
	}
}

func TestTokenStrategyWrongSecret(t *testing.T) {
	backend := &fakeBackend{accountID: "acct-1", validHash: "h1"}
	s := &TokenStrategy{Backend: backend}

	_, err := s.Authenticate(context.Background(), Credentials{
		Type: TypePassword, Email: "a@example.com", Hash: "wrong",
	})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("got %v, want ErrNotAuthenticated", err)
	}
}

// A correct secret never completes login directly when the account
// declares required authentication methods.
func TestTokenStrategyRefusesWhenRequirementsExist(t *testing.T) {
	backend := &fakeBackend{
		accountID: "acct-1",
		validHash: "h1",
		required:  []string{"password", "totp-challenge"},
	}
	s := &TokenStrategy{Backend: backend}

	_, err := s.Authenticate(context.Background(), Credentials{
		Type: TypePassword, Email: "a@example.com", Hash: "h1",
	})
	if !errors.Is(err, ErrMultifactorRequired) {
		t.Fatalf("got %v, want ErrMultifactorRequired", err)
	}
}

func TestMultifactorStrategyNoLedger(t *testing.T) {
	s := &MultifactorStrategy{Backend: &fakeBackend{accountID: "acct-1", required: []string{"password"}}}

	_, err := s.Authenticate(context.Background(), Credentials{})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("got %v, want ErrNotAuthenticated", err)
	}
}

func TestMultifactorStrategyNoRequirementsIsMisconfiguration(t *testing.T) {
	s := &MultifactorStrategy{Backend: &fakeBackend{accountID: "acct-1"}}

	_, err := s.Authenticate(context.Background(), Credentials{
		Ledger: Ledger{AccountID: "acct-1", AuthenticatedMethods: []string{"password"}},
	})
	if !errors.Is(err, ErrNoRequirements) {
		t.Fatalf("got %v, want ErrNoRequirements", err)
	}
}

func TestMultifactorStrategyUnmetRequirements(t *testing.T) {
	s := &MultifactorStrategy{Backend: &fakeBackend{
		accountID: "acct-1",
		required:  []string{"password", "totp-challenge"},
	}}

	_, err := s.Authenticate(context.Background(), Credentials{
		Ledger: Ledger{AccountID: "acct-1", AuthenticatedMethods: []string{"password"}},
	})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("got %v, want ErrNotAuthenticated", err)
	}
}

func TestMultifactorStrategySatisfied(t *testing.T) {
	s := &MultifactorStrategy{Backend: &fakeBackend{
		accountID: "acct-1",
		email:     "a@example.com",
		required:  []string{"password", "totp-challenge"},
	}}

	p, err := s.Authenticate(context.Background(), Credentials{
		Ledger: Ledger{
			AccountID:            "acct-1",
			AuthenticatedMethods: []string{"password", "totp-challenge", "extra"},
		},
	})
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if p.AccountID != "acct-1" || p.Email != "a@example.com" {
		t.Fatalf("got principal %+v", p)
	}
}

// A satisfied ledger only finalizes a login for its own account; naming
// any other target must fail.
func TestMultifactorStrategyTargetMustMatchLedger(t *testing.T) {
	s := &MultifactorStrategy{Backend: &fakeBackend{
		accountID: "acct-1",
		email:     "a@example.com",
		required:  []string{"password"},
	}}
	ledger := Ledger{AccountID: "acct-1", AuthenticatedMethods: []string{"password"}}

	if _, err := s.Authenticate(context.Background(), Credentials{
		Account: "acct-2", Ledger: ledger,
	}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("got %v, want ErrNotAuthenticated for foreign account", err)
	}
	if _, err := s.Authenticate(context.Background(), Credentials{
		Email: "b@example.com", Ledger: ledger,
	}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("got %v, want ErrNotAuthenticated for foreign email", err)
	}

	p, err := s.Authenticate(context.Background(), Credentials{
		Account: "acct-1", Email: "a@example.com", Ledger: ledger,
	})
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if p.AccountID != "acct-1" {
		t.Fatalf("got principal %+v", p)
	}
}

func TestStrategiesDispatch(t *testing.T) {
	s := NewStrategies(&fakeBackend{})

	if st, ok := s.ForType(TypeMultifactor); !ok {
		t.Fatal("expected multifactor strategy")
	} else if _, isMF := st.(*MultifactorStrategy); !isMF {
		t.Fatalf("got %T for multifactor", st)
	}

	for _, typ := range []string{TypePassword, TypeNonce, TypeTOTP} {
		st, ok := s.ForType(typ)
		if !ok {
			t.Fatalf("expected strategy for %q", typ)
		}
		if _, isToken := st.(*TokenStrategy); !isToken {
			t.Fatalf("got %T for %q", st, typ)
		}
	}

	if _, ok := s.ForType("oauth"); ok {
		t.Fatal("unexpected strategy for unknown type")
	}
}
