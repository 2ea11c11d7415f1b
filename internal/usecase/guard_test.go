package usecase

import (
	"errors"
	"testing"

	"github.com/cozydenis/auth-lab/internal/domain"
)

func TestRequireAuthenticated(t *testing.T) {
	if _, err := RequireAuthenticated(nil); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("nil profile: expected ErrUnauthorized, got %v", err)
	}
	p := &domain.Profile{ID: "p1"}
	got, err := RequireAuthenticated(p)
	if err != nil || got != p {
		t.Fatalf("authenticated profile rejected: %v", err)
	}
}

func TestRequireOwner(t *testing.T) {
	p := &domain.Profile{ID: "p1", Email: "a@x.com", Nickname: "Ada"}
	if err := RequireOwner(p, "p1"); err != nil {
		t.Fatalf("owner rejected: %v", err)
	}
	if err := RequireOwner(p, "p2"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-owner: expected ErrForbidden, got %v", err)
	}
	if err := RequireOwner(nil, "p1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("nil profile: expected ErrUnauthorized, got %v", err)
	}
}

func TestRequireOwnerComparesIDOnly(t *testing.T) {
	// Email and nickname are mutable and must never satisfy ownership.
	p := &domain.Profile{ID: "p1", Email: "p2", Nickname: "p2"}
	if err := RequireOwner(p, "p2"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ownership granted on a non-id field: %v", err)
	}
}
