package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	domainauth "stayloop/internal/domain/auth"
)

// SessionStore keeps auth sessions in Redis; the key TTL mirrors the
// session expiry so stale tokens vanish on their own.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(addr, password string) *SessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       1,
	})
	return &SessionStore{client: client}
}

func (s *SessionStore) Put(ctx context.Context, session *domainauth.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return domainauth.ErrTTLInvalid
	}
	return s.client.Set(ctx, s.redisKey(session.Token), raw, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	raw, err := s.client.Get(ctx, s.redisKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domainauth.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session domainauth.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	return s.client.Del(ctx, s.redisKey(token)).Err()
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) redisKey(token domainauth.Token) string {
	return "session:" + string(token)
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
