package authn

import "sort"

// Ledger is the session-scoped record of which authentication methods have
// been satisfied during the current login sequence. Once AccountID is set,
// every subsequent merge must target the same account; a mismatch is a
// protocol violation (stale or cross-account session reuse).
type Ledger struct {
	AccountID            string   `json:"accountId"`
	AuthenticatedMethods []string `json:"authenticatedMethods"`
}

// Empty reports whether the ledger holds no authentication state.
func (l Ledger) Empty() bool {
	return l.AccountID == "" && len(l.AuthenticatedMethods) == 0
}

// Has reports whether the given method has already been satisfied.
func (l Ledger) Has(method string) bool {
	for _, m := range l.AuthenticatedMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Merge returns a copy of the ledger with accountID set and methods
// unioned into AuthenticatedMethods. Duplicate methods collapse, so
// merging the same method twice is a no-op after the first merge.
//
// Merge fails with ErrStateConflict when the ledger already records a
// different account. The receiver is never mutated; session stores are
// expected to re-read current session data and call Merge immediately
// before writing, so a racing login for another account fails closed
// instead of being overwritten.
func (l Ledger) Merge(accountID string, methods []string) (Ledger, error) {
	if accountID == "" {
		return Ledger{}, ErrStateConflict
	}
	if l.AccountID != "" && l.AccountID != accountID {
		return Ledger{}, ErrStateConflict
	}

	merged := Ledger{
		AccountID:            accountID,
		AuthenticatedMethods: append([]string(nil), l.AuthenticatedMethods...),
	}
	for _, m := range methods {
		if m == "" || merged.Has(m) {
			continue
		}
		merged.AuthenticatedMethods = append(merged.AuthenticatedMethods, m)
	}
	// Insertion order carries no meaning; keep the slice sorted so merged
	// ledgers compare stably regardless of arrival order.
	sort.Strings(merged.AuthenticatedMethods)
	return merged, nil
}
