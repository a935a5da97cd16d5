package authn

import "context"

// Login types form a closed set; dispatch is by table, not by string
// comparison scattered through handlers.
const (
	TypePassword    = "password"
	TypeNonce       = "nonce"
	TypeTOTP        = "totp"
	TypeMultifactor = "multifactor"
)

// MethodClientRegistration is the method label satisfied by proving
// possession of a registered client device.
const MethodClientRegistration = "token-client-registration"

// Credentials is the material a strategy may inspect: the request fields
// plus the session ledger established by prior authenticate calls. The
// multifactor strategy uses only the ledger.
type Credentials struct {
	Type      string
	Account   string
	Email     string
	Hash      string
	Challenge string
	ClientID  string
	Ledger    Ledger
}

// Strategy adjudicates one login attempt. A nil error means the principal
// is authenticated; ErrNotAuthenticated and ErrMultifactorRequired are
// failures, anything else is a server-side error.
type Strategy interface {
	Authenticate(ctx context.Context, creds Credentials) (*Principal, error)
}

// Strategies is the dispatch table mapping login types to strategy
// implementations.
type Strategies struct {
	token       *TokenStrategy
	multifactor *MultifactorStrategy
}

// NewStrategies builds the strategy set over the given backend.
func NewStrategies(backend Backend) *Strategies {
	return &Strategies{
		token:       &TokenStrategy{Backend: backend},
		multifactor: &MultifactorStrategy{Backend: backend},
	}
}

// ForType returns the strategy handling the given login type, or false
// for types outside the closed set.
func (s *Strategies) ForType(typ string) (Strategy, bool) {
	switch typ {
	case TypeMultifactor:
		return s.multifactor, true
	case TypePassword, TypeNonce, TypeTOTP:
		return s.token, true
	default:
		return nil, false
	}
}
