package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jmcleod/authgate/authn"
)

const sessionKeyPrefix = "authgate:session:"

// RedisSessionStore stores sessions in redis so multiple instances can
// share login-sequence state. Ledger merges run under WATCH so a racing
// merge for a different account fails closed instead of being overwritten.
type RedisSessionStore struct {
	client      *redis.Client
	ttl         time.Duration
	idleTimeout time.Duration
}

var _ SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore creates a session store over the given client.
// idleTimeout of 0 disables idle timeout checking; ttl of 0 uses the
// default session lifetime.
func NewRedisSessionStore(client *redis.Client, ttl, idleTimeout time.Duration) *RedisSessionStore {
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl, idleTimeout: idleTimeout}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (AuthSession, bool) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		return AuthSession{}, false
	}
	var session AuthSession
	if err := json.Unmarshal(data, &session); err != nil {
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

func (s *RedisSessionStore) Put(ctx context.Context, token string, session AuthSession) {
	data, err := json.Marshal(session)
	if err != nil {
		return
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = s.ttl
	}
	_ = s.client.Set(ctx, sessionKey(token), data, ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) {
	_ = s.client.Del(ctx, sessionKey(token)).Err()
}

// UpdateLedger merges with optimistic concurrency: the session key is
// WATCHed, the merge runs against the freshly read ledger, and the write
// commits only if no other writer touched the key. Contention retries a
// bounded number of times.
func (s *RedisSessionStore) UpdateLedger(ctx context.Context, token, accountID string, methods []string) (authn.Ledger, error) {
	const maxRetries = 4
	key := sessionKey(token)

	for i := 0; i < maxRetries; i++ {
		var merged authn.Ledger

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			now := time.Now()
			session := AuthSession{ExpiresAt: now.Add(s.ttl)}

			data, err := tx.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				if err := json.Unmarshal(data, &session); err != nil {
					return err
				}
				if now.After(session.ExpiresAt) {
					session = AuthSession{ExpiresAt: now.Add(s.ttl)}
				}
			case errors.Is(err, redis.Nil):
				// New login sequence; start from an empty ledger.
			default:
				return err
			}

			merged, err = session.Ledger.Merge(accountID, methods)
			if err != nil {
				return err
			}
			session.Ledger = merged
			session.LastAccessedAt = now

			updated, err := json.Marshal(session)
			if err != nil {
				return err
			}
			ttl := time.Until(session.ExpiresAt)
			if ttl <= 0 {
				ttl = s.ttl
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, ttl)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return authn.Ledger{}, err
		}
		return merged, nil
	}
	return authn.Ledger{}, fmt.Errorf("updating session ledger: %w", redis.TxFailedErr)
}
