package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/cozydenis/auth-lab/internal/domain"
	"github.com/cozydenis/auth-lab/internal/usecase"
	res "github.com/cozydenis/auth-lab/pkg/http"
)

const (
	profileKey   = "principal"
	sessionIDKey = "session_id"
)

// SessionMiddleware restores the principal from the session cookie and
// threads it through the request context. A missing or dead session is the
// normal unauthenticated state, never an error at this layer.
type SessionMiddleware struct {
	sessions   usecase.Sessions
	cookieName string
}

func NewSessionMiddleware(sessions usecase.Sessions, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, cookieName: cookieName}
}

func (m *SessionMiddleware) Restore(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(m.cookieName)
		if err != nil || cookie.Value == "" {
			return next(c)
		}
		c.Set(sessionIDKey, cookie.Value)
		profile, err := m.sessions.Restore(c.Request().Context(), cookie.Value)
		if err != nil {
			return err
		}
		if profile != nil {
			c.Set(profileKey, profile)
		}
		return next(c)
	}
}

// RequireAuthenticated rejects requests with no restored principal.
func RequireAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := usecase.RequireAuthenticated(CurrentProfile(c)); err != nil {
			return res.Fail(c, err, RequestID(c))
		}
		return next(c)
	}
}

// CurrentProfile returns the restored principal or nil.
func CurrentProfile(c echo.Context) *domain.Profile {
	if p, ok := c.Get(profileKey).(*domain.Profile); ok {
		return p
	}
	return nil
}

// CurrentSessionID returns the cookie-presented session id, restored or not.
func CurrentSessionID(c echo.Context) string {
	if id, ok := c.Get(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

func RequestID(c echo.Context) string {
	if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
		return reqID
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
