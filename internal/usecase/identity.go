package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	natsadapter "github.com/cozydenis/auth-lab/internal/adapters/nats"
	repo "github.com/cozydenis/auth-lab/internal/adapters/postgres"
	"github.com/cozydenis/auth-lab/internal/domain"
	"github.com/cozydenis/auth-lab/internal/metrics"
	pkglog "github.com/cozydenis/auth-lab/pkg/log"
)

// Identity resolves asserted credentials to a canonical principal. Every
// method returns either a profile or an error, never both.
type Identity interface {
	Register(ctx context.Context, traceID, email, password string) (*domain.Profile, error)
	ResolveLocal(ctx context.Context, traceID, email, password string) (*domain.Profile, error)
	ResolveOAuth(ctx context.Context, traceID, provider, subject, email string) (*domain.Profile, error)
	Profile(ctx context.Context, id string) (*domain.Profile, error)
	UpdateNickname(ctx context.Context, traceID, id, nickname string) (*domain.Profile, error)
}

type identityService struct {
	principals repo.PrincipalRepository
	hasher     Hasher
	events     natsadapter.EventPublisher
	logger     pkglog.Logger
}

func NewIdentityService(principals repo.PrincipalRepository, hasher Hasher, events natsadapter.EventPublisher, logger pkglog.Logger) Identity {
	return &identityService{principals: principals, hasher: hasher, events: events, logger: logger}
}

func (s *identityService) Register(ctx context.Context, traceID, email, password string) (*domain.Profile, error) {
	norm := normalizeEmail(email)
	if err := validateEmail(norm); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	p := &domain.Principal{
		ID:           uuid.NewString(),
		Email:        norm,
		PasswordHash: &hash,
		Provider:     domain.ProviderLocal,
	}
	if err := s.principals.Create(ctx, p); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.Registrations.WithLabelValues("email_taken").Inc()
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	s.announceCreated(ctx, p)
	metrics.Registrations.WithLabelValues("ok").Inc()
	s.logger.Info().Str("trace_id", traceID).Str("principal_id", p.ID).Msg("principal registered")
	return p.Profile(), nil
}

// ResolveLocal returns the same opaque error for an unknown email, a missing
// password hash and a wrong password. Enumeration resistance is a hard
// requirement on this path.
func (s *identityService) ResolveLocal(ctx context.Context, traceID, email, password string) (*domain.Profile, error) {
	norm := normalizeEmail(email)
	p, err := s.principals.FindByEmail(ctx, norm)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.LoginAttempts.WithLabelValues("rejected").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if p.PasswordHash == nil {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	ok, err := s.hasher.Verify(*p.PasswordHash, password)
	if err != nil && !errors.Is(err, ErrMalformedDigest) {
		return nil, err
	}
	if !ok {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	now := time.Now()
	p.LastLoginAt = &now
	if err := s.principals.Update(ctx, p); err != nil {
		s.logger.Warn().Str("trace_id", traceID).Str("principal_id", p.ID).Err(err).Msg("last login update failed")
	}
	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	s.logger.Info().Str("trace_id", traceID).Str("principal_id", p.ID).Msg("local signin")
	return p.Profile(), nil
}

// ResolveOAuth looks up by (provider, subject), then links by email, then
// creates. Duplicate-key races between concurrent identical callbacks are
// settled by the store's unique constraints: the losing writer re-runs the
// lookup chain instead of failing.
func (s *identityService) ResolveOAuth(ctx context.Context, traceID, provider, subject, email string) (*domain.Profile, error) {
	if strings.TrimSpace(email) == "" {
		return nil, domain.ErrNoProviderEmail
	}
	norm := normalizeEmail(email)

	profile, err := s.resolveOAuthOnce(ctx, traceID, provider, subject, norm)
	if errors.Is(err, domain.ErrConflict) {
		profile, err = s.resolveOAuthOnce(ctx, traceID, provider, subject, norm)
	}
	return profile, err
}

func (s *identityService) resolveOAuthOnce(ctx context.Context, traceID, provider, subject, email string) (*domain.Profile, error) {
	p, err := s.principals.FindByProviderSubject(ctx, provider, subject)
	if err == nil {
		return p.Profile(), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	// Link by email without secondary proof. Deliberate trust decision:
	// whoever controls the email at the provider can claim the account.
	p, err = s.principals.FindByEmail(ctx, email)
	if err == nil {
		p.Provider = provider
		p.ProviderSubject = &subject
		if err := s.principals.Update(ctx, p); err != nil {
			return nil, err
		}
		s.logger.Info().Str("trace_id", traceID).Str("principal_id", p.ID).Str("provider", provider).Msg("provider linked")
		return p.Profile(), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	p = &domain.Principal{
		ID:              uuid.NewString(),
		Email:           email,
		Provider:        provider,
		ProviderSubject: &subject,
	}
	if err := s.principals.Create(ctx, p); err != nil {
		return nil, err
	}
	s.announceCreated(ctx, p)
	s.logger.Info().Str("trace_id", traceID).Str("principal_id", p.ID).Str("provider", provider).Msg("principal created from provider")
	return p.Profile(), nil
}

func (s *identityService) Profile(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := s.principals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Profile(), nil
}

// UpdateNickname touches only the nickname column; email, hash and provider
// fields are never affected.
func (s *identityService) UpdateNickname(ctx context.Context, traceID, id, nickname string) (*domain.Profile, error) {
	trimmed := strings.TrimSpace(nickname)
	if len(trimmed) > 50 {
		return nil, domain.Invalid("nickname", "must be at most 50 characters")
	}
	if err := s.principals.UpdateNickname(ctx, id, trimmed); err != nil {
		return nil, err
	}
	s.logger.Info().Str("trace_id", traceID).Str("principal_id", id).Msg("nickname updated")
	return s.Profile(ctx, id)
}

func (s *identityService) announceCreated(ctx context.Context, p *domain.Principal) {
	if s.events == nil {
		return
	}
	if err := s.events.PrincipalCreated(ctx, p.ID, p.Email, p.Provider); err != nil {
		s.logger.Warn().Str("principal_id", p.ID).Err(err).Msg("principal created event failed")
	}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func validateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") || len(email) > 255 {
		return domain.Invalid("email", "malformed")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 || len(password) > 128 {
		return domain.Invalid("password", "length must be between 8 and 128")
	}
	return nil
}
