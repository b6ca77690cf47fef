package router // package router registers the HTTP routes of the auth service

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/model"
)

// Deps is what the routes need beyond the handler itself.
type Deps struct {
	Keys          middleware.PublicKeySource
	Issuer        string
	RefreshSecret []byte
	Records       middleware.RefreshRecords
	Denylist      middleware.Denylist // optional
	Log           *slog.Logger
}

// RegisterRoutes registers the unauthenticated routes: welcome, health
// check and the JWKS document.
func RegisterRoutes(e *echo.Echo, keys handler.PublicKeySource) {
	e.GET("/", handler.Welcome)
	e.GET("/healthz", handler.Health)
	e.GET("/.well-known/jwks.json", handler.JWKS(keys))
}

// RegisterAuth registers the /auth routes and their middleware stages.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, d Deps) {
	access := middleware.AccessToken(d.Keys, d.Issuer, d.Denylist, d.Log)
	anyRole := middleware.RequireRole(model.RoleCustomer, model.RoleAdmin, model.RoleManager)

	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/self", a.Self, access, anyRole)
	g.POST("/refresh", a.Refresh, middleware.RefreshToken(d.RefreshSecret, d.Issuer, d.Records, d.Log))
	g.POST("/logout", a.Logout, access, middleware.ParseRefreshToken(d.RefreshSecret, d.Issuer))
}
