package domain

import "time"

const ProviderLocal = "local"

// Principal is the canonical identity record. PasswordHash is nil for
// accounts created through an OAuth provider and never set a local password.
type Principal struct {
	ID              string     `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash    *string    `gorm:"type:text" json:"-"`
	Provider        string     `gorm:"type:text;not null;default:local;uniqueIndex:idx_provider_subject" json:"provider"`
	ProviderSubject *string    `gorm:"type:text;uniqueIndex:idx_provider_subject" json:"-"`
	Nickname        string     `gorm:"type:text;not null;default:''" json:"nickname"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Principal) TableName() string { return "principal" }

// Profile is the public projection of a Principal. It is the only shape the
// service layer hands to transports; it never carries the password hash.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

func (p *Principal) Profile() *Profile {
	return &Profile{ID: p.ID, Email: p.Email, Nickname: p.Nickname}
}

// Session binds an opaque cookie-carried identifier to a principal. Expiry is
// absolute: ExpiresAt is fixed at creation and never slides. Meta holds small
// diagnostic values (a view counter) and nothing security relevant.
type Session struct {
	ID          string            `json:"id"`
	PrincipalID string            `json:"principal_id"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Meta        map[string]string `json:"meta,omitempty"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
