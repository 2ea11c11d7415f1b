package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cozydenis/auth-lab/internal/domain"
)

const keyPrefix = "sess:"

// SessionStore maps opaque session ids to serialized sessions. Put must be
// create-only: a second writer with the same id gets domain.ErrSessionExists
// rather than overwriting.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
}

type sessionStore struct{ rdb *redis.Client }

func NewSessionStore(rdb *redis.Client) SessionStore { return &sessionStore{rdb: rdb} }

func (s *sessionStore) Put(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	// Redis TTL mirrors the absolute expiry as a storage safety net; the
	// manager still checks ExpiresAt lazily on every read.
	ok, err := s.rdb.SetNX(ctx, keyPrefix+sess.ID, data, ttlFor(sess)).Result()
	if err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	if !ok {
		return domain.ErrSessionExists
	}
	return nil
}

func (s *sessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return &sess, nil
}

func (s *sessionStore) Save(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ttl := ttlFor(sess)
	if ttl <= 0 {
		return s.Delete(ctx, sess.ID)
	}
	if err := s.rdb.Set(ctx, keyPrefix+sess.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

func (s *sessionStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

func ttlFor(sess *domain.Session) time.Duration {
	return time.Until(sess.ExpiresAt)
}
