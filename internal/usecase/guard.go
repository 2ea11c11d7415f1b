package usecase

import "github.com/cozydenis/auth-lab/internal/domain"

// RequireAuthenticated fails with ErrUnauthorized when no principal was
// restored for the request.
func RequireAuthenticated(profile *domain.Profile) (*domain.Profile, error) {
	if profile == nil {
		return nil, domain.ErrUnauthorized
	}
	return profile, nil
}

// RequireOwner compares stable identifiers only. Email and nickname are
// mutable and never part of an ownership decision.
func RequireOwner(profile *domain.Profile, ownerID string) error {
	if profile == nil {
		return domain.ErrUnauthorized
	}
	if profile.ID != ownerID {
		return domain.ErrForbidden
	}
	return nil
}
