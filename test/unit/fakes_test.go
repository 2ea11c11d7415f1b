package unit

import (
	"context"
	"errors"
	"sync"

	"github.com/cozydenis/auth-lab/internal/domain"
)

// memPrincipals is an in-memory PrincipalRepository enforcing the same
// uniqueness constraints the database does: a second writer on the same
// email or (provider, subject) gets domain.ErrConflict.
type memPrincipals struct {
	mu   sync.Mutex
	byID map[string]*domain.Principal
}

func newMemPrincipals() *memPrincipals {
	return &memPrincipals{byID: map[string]*domain.Principal{}}
}

func clone(p *domain.Principal) *domain.Principal {
	cp := *p
	if p.PasswordHash != nil {
		h := *p.PasswordHash
		cp.PasswordHash = &h
	}
	if p.ProviderSubject != nil {
		s := *p.ProviderSubject
		cp.ProviderSubject = &s
	}
	return &cp
}

func (r *memPrincipals) violates(candidate *domain.Principal) bool {
	for id, existing := range r.byID {
		if id == candidate.ID {
			continue
		}
		if existing.Email == candidate.Email {
			return true
		}
		if candidate.ProviderSubject != nil && existing.ProviderSubject != nil &&
			existing.Provider == candidate.Provider && *existing.ProviderSubject == *candidate.ProviderSubject {
			return true
		}
	}
	return false
}

func (r *memPrincipals) Create(_ context.Context, p *domain.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.violates(p) {
		return domain.ErrConflict
	}
	r.byID[p.ID] = clone(p)
	return nil
}

func (r *memPrincipals) FindByID(_ context.Context, id string) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		return clone(p), nil
	}
	return nil, domain.ErrNotFound
}

func (r *memPrincipals) FindByEmail(_ context.Context, email string) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.Email == email {
			return clone(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memPrincipals) FindByProviderSubject(_ context.Context, provider, subject string) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.ProviderSubject != nil && p.Provider == provider && *p.ProviderSubject == subject {
			return clone(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memPrincipals) Update(_ context.Context, p *domain.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return domain.ErrNotFound
	}
	if r.violates(p) {
		return domain.ErrConflict
	}
	r.byID[p.ID] = clone(p)
	return nil
}

func (r *memPrincipals) UpdateNickname(_ context.Context, id, nickname string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Nickname = nickname
	return nil
}

func (r *memPrincipals) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

var errStoreDown = errors.New("store down")

// memSessions is an in-memory SessionStore with switchable failure modes.
type memSessions struct {
	mu      sync.Mutex
	byID    map[string]*domain.Session
	failGet bool
	failPut bool
}

func newMemSessions() *memSessions {
	return &memSessions{byID: map[string]*domain.Session{}}
}

func cloneSession(s *domain.Session) *domain.Session {
	cp := *s
	if s.Meta != nil {
		cp.Meta = make(map[string]string, len(s.Meta))
		for k, v := range s.Meta {
			cp.Meta[k] = v
		}
	}
	return &cp
}

func (s *memSessions) Put(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return errStoreDown
	}
	if _, ok := s.byID[sess.ID]; ok {
		return domain.ErrSessionExists
	}
	s.byID[sess.ID] = cloneSession(sess)
	return nil
}

func (s *memSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, errStoreDown
	}
	if sess, ok := s.byID[id]; ok {
		return cloneSession(sess), nil
	}
	return nil, domain.ErrNotFound
}

func (s *memSessions) Save(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sess.ID] = cloneSession(sess)
	return nil
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}
