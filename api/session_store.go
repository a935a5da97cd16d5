package api

import (
	"context"
	"time"

	"github.com/jmcleod/authgate/authn"
)

// defaultSessionTTL bounds one login sequence; a session that has not
// reached the authenticated state by then is abandoned.
const defaultSessionTTL = 24 * time.Hour

// SessionStore abstracts session CRUD so that sessions can be stored
// in-memory (default) or in redis for multi-instance deployments.
//
// UpdateLedger is the single write path for ledger state: it re-reads the
// session immediately before merging and fails closed with
// authn.ErrStateConflict when a different account id was recorded
// underneath the caller.
type SessionStore interface {
	// Get retrieves a session by token. Returns false if the session
	// does not exist, has expired, or has exceeded the idle timeout.
	Get(ctx context.Context, token string) (AuthSession, bool)
	// Put creates or replaces a session for the given token.
	Put(ctx context.Context, token string, session AuthSession)
	// Delete removes a session by token.
	Delete(ctx context.Context, token string)
	// UpdateLedger merges the account id and methods into the session's
	// ledger, creating the session when absent, and returns the merged
	// ledger.
	UpdateLedger(ctx context.Context, token, accountID string, methods []string) (authn.Ledger, error)
}

// AuthSession holds the server-side state for one login sequence: the
// ledger of satisfied factors plus, once login completes, the
// authenticated flag.
type AuthSession struct {
	Ledger         authn.Ledger `json:"ledger"`
	Authenticated  bool         `json:"authenticated"`
	ExpiresAt      time.Time    `json:"expiresAt"`
	LastAccessedAt time.Time    `json:"lastAccessedAt"`
}
