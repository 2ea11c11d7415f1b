package unit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cozydenis/auth-lab/internal/domain"
	"github.com/cozydenis/auth-lab/internal/usecase"
	pkglog "github.com/cozydenis/auth-lab/pkg/log"
)

func newTestIdentity(t *testing.T) (usecase.Identity, *memPrincipals) {
	t.Helper()
	principals := newMemPrincipals()
	hasher := usecase.NewHasher(usecase.Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	svc := usecase.NewIdentityService(principals, hasher, nil, pkglog.Nop())
	return svc, principals
}

func TestRegisterAndResolveLocal(t *testing.T) {
	svc, _ := newTestIdentity(t)
	ctx := context.Background()

	profile, err := svc.Register(ctx, "t1", "A@X.com ", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if profile.Email != "a@x.com" {
		t.Fatalf("email not normalized: %s", profile.Email)
	}
	if profile.Nickname != "" {
		t.Fatalf("fresh principal has nickname %q", profile.Nickname)
	}

	resolved, err := svc.ResolveLocal(ctx, "t1", "a@x.com", "password1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ID != profile.ID {
		t.Fatalf("resolved %s, registered %s", resolved.ID, profile.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, principals := newTestIdentity(t)
	ctx := context.Background()

	cases := []struct{ email, password string }{
		{"not-an-email", "password1"},
		{"", "password1"},
		{"a@x.com", "short"},
		{"a@x.com", strings.Repeat("p", 129)},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, "t1", tc.email, tc.password); !domain.IsValidation(err) {
			t.Fatalf("register(%q, len %d): expected validation error, got %v", tc.email, len(tc.password), err)
		}
	}
	if principals.count() != 0 {
		t.Fatalf("invalid registrations persisted %d principals", principals.count())
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, principals := newTestIdentity(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, "t1", "a@x.com", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "t2", "a@x.com", "different2"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if principals.count() != 1 {
		t.Fatalf("duplicate registration created a principal")
	}
	// The failed attempt must not mutate the existing principal.
	resolved, err := svc.ResolveLocal(ctx, "t3", "a@x.com", "password1")
	if err != nil || resolved.ID != first.ID {
		t.Fatalf("original principal mutated by failed registration: %v", err)
	}
}

func TestResolveLocalOpaqueFailures(t *testing.T) {
	svc, _ := newTestIdentity(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "t1", "known@x.com", "password1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	// OAuth-only principal: no password hash.
	if _, err := svc.ResolveOAuth(ctx, "t1", "google", "sub-1", "oauth-only@x.com"); err != nil {
		t.Fatalf("resolve oauth: %v", err)
	}

	cases := []struct{ email, password string }{
		{"unknown@x.com", "whatever1"},
		{"known@x.com", "wrong-password"},
		{"oauth-only@x.com", "anything1"},
	}
	for _, tc := range cases {
		_, err := svc.ResolveLocal(ctx, "t2", tc.email, tc.password)
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("login(%s): expected the one ErrInvalidCredentials, got %v", tc.email, err)
		}
	}
}

func TestResolveOAuthCreatesOnce(t *testing.T) {
	svc, principals := newTestIdentity(t)
	ctx := context.Background()

	first, err := svc.ResolveOAuth(ctx, "t1", "google", "sub-42", "new@x.com")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := svc.ResolveOAuth(ctx, "t2", "google", "sub-42", "new@x.com")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same subject resolved to two principals: %s vs %s", first.ID, second.ID)
	}
	if principals.count() != 1 {
		t.Fatalf("expected 1 principal, got %d", principals.count())
	}
}

func TestResolveOAuthConcurrentRace(t *testing.T) {
	svc, principals := newTestIdentity(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	ids := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := svc.ResolveOAuth(ctx, "t1", "google", "sub-race", "race@x.com")
			if p != nil {
				ids[i] = p.ID
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("workers resolved different principals: %s vs %s", ids[i], ids[0])
		}
	}
	if principals.count() != 1 {
		t.Fatalf("race created %d principals", principals.count())
	}
}

func TestResolveOAuthLinksByEmail(t *testing.T) {
	svc, principals := newTestIdentity(t)
	ctx := context.Background()

	local, err := svc.Register(ctx, "t1", "a@x.com", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	linked, err := svc.ResolveOAuth(ctx, "t2", "google", "sub-7", "a@x.com")
	if err != nil {
		t.Fatalf("resolve oauth: %v", err)
	}
	if linked.ID != local.ID {
		t.Fatalf("link created a new principal: %s vs %s", linked.ID, local.ID)
	}
	if principals.count() != 1 {
		t.Fatalf("expected 1 principal after linking, got %d", principals.count())
	}
	// Once linked, the subject lookup wins.
	again, err := svc.ResolveOAuth(ctx, "t3", "google", "sub-7", "changed@elsewhere.com")
	if err != nil || again.ID != local.ID {
		t.Fatalf("subject lookup after link failed: %v", err)
	}
	// The local password still works after linking.
	if _, err := svc.ResolveLocal(ctx, "t4", "a@x.com", "password1"); err != nil {
		t.Fatalf("local login broken by provider link: %v", err)
	}
}

func TestResolveOAuthRequiresEmail(t *testing.T) {
	svc, _ := newTestIdentity(t)
	if _, err := svc.ResolveOAuth(context.Background(), "t1", "google", "sub-1", "  "); !errors.Is(err, domain.ErrNoProviderEmail) {
		t.Fatalf("expected ErrNoProviderEmail, got %v", err)
	}
}

func TestUpdateNickname(t *testing.T) {
	svc, _ := newTestIdentity(t)
	ctx := context.Background()

	p, err := svc.Register(ctx, "t1", "a@x.com", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.UpdateNickname(ctx, "t2", p.ID, "  Ada  ")
	if err != nil {
		t.Fatalf("update nickname: %v", err)
	}
	if updated.Nickname != "Ada" {
		t.Fatalf("nickname not trimmed: %q", updated.Nickname)
	}

	if _, err := svc.UpdateNickname(ctx, "t3", p.ID, strings.Repeat("n", 51)); !domain.IsValidation(err) {
		t.Fatalf("51-char nickname accepted: %v", err)
	}

	cleared, err := svc.UpdateNickname(ctx, "t4", p.ID, "")
	if err != nil || cleared.Nickname != "" {
		t.Fatalf("empty nickname should clear: %q %v", cleared.Nickname, err)
	}

	// Nickname updates never touch credentials.
	if _, err := svc.ResolveLocal(ctx, "t5", "a@x.com", "password1"); err != nil {
		t.Fatalf("login broken by nickname update: %v", err)
	}
}
