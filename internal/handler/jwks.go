package handler

import (
	"crypto/rsa"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/keys"
)

// PublicKeySource yields the access-token verification key.
type PublicKeySource interface {
	Public() (*rsa.PublicKey, error)
}

// JWKS publishes the RS256 public key so peer services can verify access
// tokens without a shared secret.
func JWKS(src PublicKeySource) echo.HandlerFunc {
	return func(c echo.Context) error {
		pub, err := src.Public()
		if err != nil {
			return err
		}
		c.Response().Header().Set("Cache-Control", "public, max-age=300")
		return c.JSON(http.StatusOK, keys.JWKSet{Keys: []keys.JWK{keys.PublicJWK(pub)}})
	}
}
