package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/cozydenis/auth-lab/internal/adapters/http/api/v1/handlers"
	mw "github.com/cozydenis/auth-lab/internal/adapters/http/middleware"
)

type Router struct {
	auth       *handlers.AuthHandler
	principals *handlers.PrincipalHandler
	session    *mw.SessionMiddleware
}

func NewRouter(auth *handlers.AuthHandler, principals *handlers.PrincipalHandler, session *mw.SessionMiddleware) *Router {
	return &Router{auth: auth, principals: principals, session: session}
}

func (r *Router) Register(g *echo.Group) {
	g.Use(r.session.Restore)

	auth := g.Group("/auth")
	auth.POST("/register", r.auth.Register)
	auth.POST("/login", r.auth.Login)
	auth.POST("/logout", r.auth.Logout)
	auth.GET("/me", r.auth.Me)
	auth.GET("/oauth/:provider/login", r.auth.OAuthLogin)
	auth.GET("/oauth/:provider/callback", r.auth.OAuthCallback)

	principals := g.Group("/principals")
	principals.GET("/:id/nickname", r.principals.GetNickname)
	principals.PUT("/:id/nickname", r.principals.PutNickname)
}
