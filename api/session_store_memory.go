package api

import (
	"context"
	"sync"
	"time"

	"github.com/jmcleod/authgate/authn"
)

// MemorySessionStore is a thread-safe in-memory SessionStore.
// Sessions are lost on server restart.
type MemorySessionStore struct {
	mu          sync.RWMutex
	data        map[string]AuthSession
	ttl         time.Duration
	idleTimeout time.Duration
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an in-memory session store. idleTimeout of
// 0 disables idle timeout checking; ttl of 0 uses the default session
// lifetime for sessions created through UpdateLedger.
func NewMemorySessionStore(ttl, idleTimeout time.Duration) *MemorySessionStore {
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	return &MemorySessionStore{
		data:        make(map[string]AuthSession),
		ttl:         ttl,
		idleTimeout: idleTimeout,
	}
}

func (s *MemorySessionStore) Get(ctx context.Context, token string) (AuthSession, bool) {
	s.mu.RLock()
	session, ok := s.data[token]
	s.mu.RUnlock()
	if !ok {
		return AuthSession{}, false
	}
	if time.Now().After(session.ExpiresAt) {
		s.Delete(ctx, token)
		return AuthSession{}, false
	}
	if s.idleTimeout > 0 && time.Since(session.LastAccessedAt) > s.idleTimeout {
		s.Delete(ctx, token)
		return AuthSession{}, false
	}
	return session, true
}

func (s *MemorySessionStore) Put(ctx context.Context, token string, session AuthSession) {
	s.mu.Lock()
	s.data[token] = session
	s.mu.Unlock()
}

func (s *MemorySessionStore) Delete(ctx context.Context, token string) {
	s.mu.Lock()
	delete(s.data, token)
	s.mu.Unlock()
}

// UpdateLedger merges under the store mutex so a racing merge for a
// different account observes the first writer's account id and fails
// closed.
func (s *MemorySessionStore) UpdateLedger(ctx context.Context, token, accountID string, methods []string) (authn.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	session, ok := s.data[token]
	if !ok || now.After(session.ExpiresAt) {
		session = AuthSession{ExpiresAt: now.Add(s.ttl)}
	}
	merged, err := session.Ledger.Merge(accountID, methods)
	if err != nil {
		return authn.Ledger{}, err
	}
	session.Ledger = merged
	session.LastAccessedAt = now
	s.data[token] = session
	return merged, nil
}
