package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cozydenis/auth-lab/internal/domain"
)

// PrincipalRepository is the persistence boundary for principals. Uniqueness
// of email and of (provider, provider_subject) is enforced by the database;
// a write that loses the race returns domain.ErrConflict and the caller is
// expected to re-read.
type PrincipalRepository interface {
	Create(ctx context.Context, p *domain.Principal) error
	FindByID(ctx context.Context, id string) (*domain.Principal, error)
	FindByEmail(ctx context.Context, email string) (*domain.Principal, error)
	FindByProviderSubject(ctx context.Context, provider, subject string) (*domain.Principal, error)
	Update(ctx context.Context, p *domain.Principal) error
	UpdateNickname(ctx context.Context, id, nickname string) error
}

type principalRepo struct{ db *gorm.DB }

func NewPrincipalRepository(db *gorm.DB) PrincipalRepository { return &principalRepo{db: db} }

func (r *principalRepo) Create(ctx context.Context, p *domain.Principal) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *principalRepo) FindByID(ctx context.Context, id string) (*domain.Principal, error) {
	var p domain.Principal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *principalRepo) FindByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	var p domain.Principal
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *principalRepo) FindByProviderSubject(ctx context.Context, provider, subject string) (*domain.Principal, error) {
	var p domain.Principal
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_subject = ?", provider, subject).
		First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *principalRepo) Update(ctx context.Context, p *domain.Principal) error {
	return translate(r.db.WithContext(ctx).Save(p).Error)
}

func (r *principalRepo) UpdateNickname(ctx context.Context, id, nickname string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Principal{}).
		Where("id = ?", id).
		Update("nickname", nickname)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// translate maps gorm errors onto the domain taxonomy. Requires the gorm
// session to be opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConflict
	default:
		return err
	}
}
