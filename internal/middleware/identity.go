package middleware

// identity.go stores and reads the verified token claims on the Echo context.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/utils"
)

const (
	accessClaimsKey  = "auth.access_claims"
	accessRawKey     = "auth.access_raw"
	refreshClaimsKey = "auth.refresh_claims"
)

func setAccess(c echo.Context, claims *utils.Claims, raw string) {
	c.Set(accessClaimsKey, claims)
	c.Set(accessRawKey, raw)
}

func setRefresh(c echo.Context, claims *utils.Claims) {
	c.Set(refreshClaimsKey, claims)
}

// AccessClaims returns the claims stored by AccessToken.
func AccessClaims(c echo.Context) (*utils.Claims, bool) {
	cl, ok := c.Get(accessClaimsKey).(*utils.Claims)
	return cl, ok && cl != nil
}

// AccessRaw returns the raw access token verified by AccessToken.
func AccessRaw(c echo.Context) string {
	s, _ := c.Get(accessRawKey).(string)
	return s
}

// RefreshClaims returns the claims stored by RefreshToken or
// ParseRefreshToken.
func RefreshClaims(c echo.Context) (*utils.Claims, bool) {
	cl, ok := c.Get(refreshClaimsKey).(*utils.Claims)
	return cl, ok && cl != nil
}

// UserID returns the subject of the verified access token.
func UserID(c echo.Context) (uint64, bool) {
	cl, ok := AccessClaims(c)
	if !ok {
		return 0, false
	}
	id, err := cl.UserID()
	return id, err == nil
}
