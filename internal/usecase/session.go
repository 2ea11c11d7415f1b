package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	repo "github.com/cozydenis/auth-lab/internal/adapters/postgres"
	redisstore "github.com/cozydenis/auth-lab/internal/adapters/redis"
	"github.com/cozydenis/auth-lab/internal/domain"
	"github.com/cozydenis/auth-lab/internal/metrics"
	pkglog "github.com/cozydenis/auth-lab/pkg/log"
)

const (
	sessionIDBytes       = 32
	establishMaxAttempts = 3
)

// Sessions owns the session lifecycle: absent -> active -> expired or
// terminated. Expiry is absolute from creation; nothing slides it.
type Sessions interface {
	Establish(ctx context.Context, traceID, principalID string) (*domain.Session, error)
	Restore(ctx context.Context, sessionID string) (*domain.Profile, error)
	Terminate(ctx context.Context, traceID, sessionID string) error
}

type sessionManager struct {
	store      redisstore.SessionStore
	principals repo.PrincipalRepository
	ttl        time.Duration
	now        func() time.Time
	logger     pkglog.Logger
}

func NewSessionManager(store redisstore.SessionStore, principals repo.PrincipalRepository, ttl time.Duration, now func() time.Time, logger pkglog.Logger) Sessions {
	if now == nil {
		now = time.Now
	}
	return &sessionManager{store: store, principals: principals, ttl: ttl, now: now, logger: logger}
}

func (m *sessionManager) Establish(ctx context.Context, traceID, principalID string) (*domain.Session, error) {
	for attempt := 0; attempt < establishMaxAttempts; attempt++ {
		id, err := newSessionID()
		if err != nil {
			return nil, err
		}
		created := m.now()
		sess := &domain.Session{
			ID:          id,
			PrincipalID: principalID,
			CreatedAt:   created,
			ExpiresAt:   created.Add(m.ttl),
			Meta:        map[string]string{},
		}
		err = m.store.Put(ctx, sess)
		if errors.Is(err, domain.ErrSessionExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		metrics.SessionsEstablished.Inc()
		m.logger.Info().Str("trace_id", traceID).Str("principal_id", principalID).Msg("session established")
		return sess, nil
	}
	return nil, fmt.Errorf("session id collision after %d attempts", establishMaxAttempts)
}

// Restore resolves a cookie-carried session id to a profile. Absent, expired
// and dangling sessions are all the normal logged-out state, not errors.
// Store unavailability degrades the same way: the request proceeds
// unauthenticated rather than failing every call while the store is down.
func (m *sessionManager) Restore(ctx context.Context, sessionID string) (*domain.Profile, error) {
	if sessionID == "" {
		return nil, nil
	}
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			m.logger.Warn().Err(err).Msg("session store unavailable, treating as absent")
		}
		return nil, nil
	}
	if sess.Expired(m.now()) {
		_ = m.store.Delete(ctx, sessionID)
		return nil, nil
	}
	p, err := m.principals.FindByID(ctx, sess.PrincipalID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			m.logger.Warn().Err(err).Msg("principal lookup failed during restore")
		}
		return nil, nil
	}
	m.bumpViews(ctx, sess)
	return p.Profile(), nil
}

func (m *sessionManager) Terminate(ctx context.Context, traceID, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	m.logger.Info().Str("trace_id", traceID).Msg("session terminated")
	return nil
}

// bumpViews maintains a diagnostic per-session request counter. Best effort;
// losing a write never affects authentication.
func (m *sessionManager) bumpViews(ctx context.Context, sess *domain.Session) {
	if sess.Meta == nil {
		sess.Meta = map[string]string{}
	}
	views, _ := strconv.Atoi(sess.Meta["views"])
	sess.Meta["views"] = strconv.Itoa(views + 1)
	if err := m.store.Save(ctx, sess); err != nil {
		m.logger.Debug().Err(err).Msg("session view counter save failed")
	}
}

func newSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session id generation: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
