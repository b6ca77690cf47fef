package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/service"
)

const (
	accessCookieMaxAge  = int(time.Hour / time.Second)            // 1 hour
	refreshCookieMaxAge = int(365 * 24 * time.Hour / time.Second) // 1 year
)

func (h *AuthHandler) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   h.Cookie.Domain,
		Path:     "/",
		MaxAge:   maxAge,
		SameSite: http.SameSiteStrictMode,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
	}
}

func (h *AuthHandler) setTokenCookies(c echo.Context, pair service.TokenPair) {
	c.SetCookie(h.cookie(middleware.AccessCookie, pair.Access.Token, accessCookieMaxAge))
	c.SetCookie(h.cookie(middleware.RefreshCookie, pair.Refresh.Token, refreshCookieMaxAge))
}

// clearTokenCookies expires both cookies on the client.
func (h *AuthHandler) clearTokenCookies(c echo.Context) {
	c.SetCookie(h.cookie(middleware.AccessCookie, "", -1))
	c.SetCookie(h.cookie(middleware.RefreshCookie, "", -1))
}
