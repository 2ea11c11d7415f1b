package oauthadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"

	"github.com/cozydenis/auth-lab/config"
	"github.com/cozydenis/auth-lab/internal/domain"
)

// Assertion is the normalized identity a provider vouches for. Facts only,
// no decisions: linking and account creation happen in the identity service.
type Assertion struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

// Provider drives the authorization-code flow against one OAuth2 provider.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Assertion, error)
}

type provider struct {
	name        string
	oauth       *oauth2.Config
	userinfoURL string
	client      *http.Client
}

func NewProvider(cfg *config.Config) Provider {
	return &provider{
		name: cfg.OAuthProvider,
		oauth: &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       cfg.OAuthScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OAuthAuthURL,
				TokenURL: cfg.OAuthTokenURL,
			},
		},
		userinfoURL: cfg.OAuthUserinfoURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *provider) Name() string { return p.name }

func (p *provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange trades the authorization code for a token and resolves the
// provider's userinfo endpoint into an Assertion. The userinfo call is
// retried briefly; the code exchange is not, since codes are single use.
func (p *provider) Exchange(ctx context.Context, code string) (*Assertion, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	info, err := p.fetchUserinfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	subject := info.Sub
	if subject == "" {
		subject = info.ID
	}
	if subject == "" {
		return nil, fmt.Errorf("provider returned no subject")
	}
	if info.Email == "" {
		return nil, domain.ErrNoProviderEmail
	}
	return &Assertion{Provider: p.name, Subject: subject, Email: info.Email, Name: info.Name}, nil
}

type userinfo struct {
	Sub   string `json:"sub"`
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (p *provider) fetchUserinfo(ctx context.Context, accessToken string) (*userinfo, error) {
	var info userinfo
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		res, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.StatusCode >= 500 {
			return fmt.Errorf("userinfo error: %d", res.StatusCode)
		}
		if res.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("userinfo rejected: %d", res.StatusCode))
		}
		if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 3 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return &info, nil
}
