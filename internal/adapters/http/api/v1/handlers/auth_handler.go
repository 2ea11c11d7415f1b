package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cozydenis/auth-lab/config"
	mw "github.com/cozydenis/auth-lab/internal/adapters/http/middleware"
	oauthadapter "github.com/cozydenis/auth-lab/internal/adapters/oauth"
	"github.com/cozydenis/auth-lab/internal/domain"
	"github.com/cozydenis/auth-lab/internal/metrics"
	"github.com/cozydenis/auth-lab/internal/usecase"
	res "github.com/cozydenis/auth-lab/pkg/http"
	pkglog "github.com/cozydenis/auth-lab/pkg/log"
)

const stateCookieName = "oauth_state"

type AuthHandler struct {
	identity usecase.Identity
	sessions usecase.Sessions
	provider oauthadapter.Provider
	cfg      *config.Config
	logger   pkglog.Logger
}

func NewAuthHandler(identity usecase.Identity, sessions usecase.Sessions, provider oauthadapter.Provider, cfg *config.Config, logger pkglog.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, sessions: sessions, provider: provider, cfg: cfg, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	Principal *domain.Profile `json:"principal"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	req := new(credentialsRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", mw.RequestID(c), nil)
	}
	profile, err := h.identity.Register(c.Request().Context(), mw.RequestID(c), req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.startSession(c, profile.ID); err != nil {
		return h.fail(c, err)
	}
	return res.JSON(c, http.StatusCreated, profile)
}

func (h *AuthHandler) Login(c echo.Context) error {
	req := new(credentialsRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", mw.RequestID(c), nil)
	}
	profile, err := h.identity.ResolveLocal(c.Request().Context(), mw.RequestID(c), req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.startSession(c, profile.ID); err != nil {
		return h.fail(c, err)
	}
	return res.JSON(c, http.StatusOK, profile)
}

// Logout is idempotent: terminating an absent session succeeds and the
// cookie is cleared either way.
func (h *AuthHandler) Logout(c echo.Context) error {
	if sid := mw.CurrentSessionID(c); sid != "" {
		if err := h.sessions.Terminate(c.Request().Context(), mw.RequestID(c), sid); err != nil {
			return h.fail(c, err)
		}
	}
	h.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me never errors for the unauthenticated case; the principal is null.
func (h *AuthHandler) Me(c echo.Context) error {
	return res.JSON(c, http.StatusOK, meResponse{Principal: mw.CurrentProfile(c)})
}

func (h *AuthHandler) OAuthLogin(c echo.Context) error {
	state, err := newStateNonce()
	if err != nil {
		return h.fail(c, err)
	}
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// OAuthCallback is reached by browser navigation, so failures redirect to
// the failure target with an error flag instead of returning JSON.
func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	stateCookie, err := c.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		metrics.OAuthCallbacks.WithLabelValues("state_mismatch").Inc()
		return h.redirectFailure(c, "state_mismatch")
	}
	h.clearStateCookie(c)

	code := c.QueryParam("code")
	if code == "" {
		metrics.OAuthCallbacks.WithLabelValues("provider_denied").Inc()
		return h.redirectFailure(c, "provider_denied")
	}

	assertion, err := h.provider.Exchange(c.Request().Context(), code)
	if err != nil {
		h.logger.Warn().Str("trace_id", mw.RequestID(c)).Err(err).Msg("oauth exchange failed")
		metrics.OAuthCallbacks.WithLabelValues("exchange_failed").Inc()
		return h.redirectFailure(c, "provider_error")
	}

	profile, err := h.identity.ResolveOAuth(c.Request().Context(), mw.RequestID(c), assertion.Provider, assertion.Subject, assertion.Email)
	if err != nil {
		if res.IsInternal(err) {
			h.logger.Error().Str("trace_id", mw.RequestID(c)).Err(err).Msg("oauth resolution failed")
		}
		metrics.OAuthCallbacks.WithLabelValues("resolve_failed").Inc()
		if errors.Is(err, domain.ErrNoProviderEmail) {
			return h.redirectFailure(c, "no_email_from_provider")
		}
		return h.redirectFailure(c, "internal")
	}

	if err := h.startSession(c, profile.ID); err != nil {
		h.logger.Error().Str("trace_id", mw.RequestID(c)).Err(err).Msg("oauth session establish failed")
		metrics.OAuthCallbacks.WithLabelValues("session_failed").Inc()
		return h.redirectFailure(c, "internal")
	}
	metrics.OAuthCallbacks.WithLabelValues("ok").Inc()
	return c.Redirect(http.StatusFound, h.cfg.OAuthSuccessRedirect)
}

func (h *AuthHandler) startSession(c echo.Context, principalID string) error {
	sess, err := h.sessions.Establish(c.Request().Context(), mw.RequestID(c), principalID)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(h.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearStateCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

func (h *AuthHandler) redirectFailure(c echo.Context, reason string) error {
	target := h.cfg.OAuthFailureRedirect + "?error=" + url.QueryEscape(reason)
	return c.Redirect(http.StatusFound, target)
}

func (h *AuthHandler) fail(c echo.Context, err error) error {
	if res.IsInternal(err) {
		h.logger.Error().Str("trace_id", mw.RequestID(c)).Err(err).Msg("request failed")
	}
	return res.Fail(c, err, mw.RequestID(c))
}

func newStateNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
