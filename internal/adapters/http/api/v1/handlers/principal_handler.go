package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mw "github.com/cozydenis/auth-lab/internal/adapters/http/middleware"
	"github.com/cozydenis/auth-lab/internal/usecase"
	res "github.com/cozydenis/auth-lab/pkg/http"
	pkglog "github.com/cozydenis/auth-lab/pkg/log"
)

// PrincipalHandler serves the owner-scoped nickname resource. Authentication
// is checked before ownership, always in that order.
type PrincipalHandler struct {
	identity usecase.Identity
	logger   pkglog.Logger
}

func NewPrincipalHandler(identity usecase.Identity, logger pkglog.Logger) *PrincipalHandler {
	return &PrincipalHandler{identity: identity, logger: logger}
}

type nicknameRequest struct {
	Nickname string `json:"nickname"`
}

type nicknameResponse struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

func (h *PrincipalHandler) GetNickname(c echo.Context) error {
	profile, err := usecase.RequireAuthenticated(mw.CurrentProfile(c))
	if err != nil {
		return res.Fail(c, err, mw.RequestID(c))
	}
	ownerID := c.Param("id")
	if err := usecase.RequireOwner(profile, ownerID); err != nil {
		return res.Fail(c, err, mw.RequestID(c))
	}
	current, err := h.identity.Profile(c.Request().Context(), ownerID)
	if err != nil {
		return h.fail(c, err)
	}
	return res.JSON(c, http.StatusOK, nicknameResponse{ID: current.ID, Nickname: current.Nickname})
}

func (h *PrincipalHandler) PutNickname(c echo.Context) error {
	profile, err := usecase.RequireAuthenticated(mw.CurrentProfile(c))
	if err != nil {
		return res.Fail(c, err, mw.RequestID(c))
	}
	ownerID := c.Param("id")
	if err := usecase.RequireOwner(profile, ownerID); err != nil {
		return res.Fail(c, err, mw.RequestID(c))
	}
	req := new(nicknameRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", mw.RequestID(c), nil)
	}
	updated, err := h.identity.UpdateNickname(c.Request().Context(), mw.RequestID(c), ownerID, req.Nickname)
	if err != nil {
		return h.fail(c, err)
	}
	return res.JSON(c, http.StatusOK, nicknameResponse{ID: updated.ID, Nickname: updated.Nickname})
}

func (h *PrincipalHandler) fail(c echo.Context, err error) error {
	if res.IsInternal(err) {
		h.logger.Error().Str("trace_id", mw.RequestID(c)).Err(err).Msg("request failed")
	}
	return res.Fail(c, err, mw.RequestID(c))
}
