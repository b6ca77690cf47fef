package middleware // middleware holds the request pipeline stages that guard the auth routes

import (
	"context"
	"crypto/rsa"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/utils"
)

// Cookie names shared with the handlers that set them.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// lookupTimeout bounds the store and denylist calls made by the stages.
const lookupTimeout = 5 * time.Second

// PublicKeySource yields the RS256 verification key.  Implemented by
// keys.Loader.
type PublicKeySource interface {
	Public() (*rsa.PublicKey, error)
}

// Denylist reports whether an access token hash was revoked at logout.
type Denylist interface {
	Contains(ctx context.Context, tokenHash string) (bool, error)
}

// RefreshRecords finds a live refresh token record.  Implemented by
// repository.TokenRepo.
type RefreshRecords interface {
	FindActive(ctx context.Context, id, userID uint64) (model.RefreshToken, error)
}

func unauthorized() error {
	return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
}

// bearerOrCookie returns the access token from the Authorization header,
// falling back to the accessToken cookie.
func bearerOrCookie(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if raw, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(raw)
		}
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// AccessToken verifies the RS256 access token and stores its claims on the
// context.  When denylist is non-nil, tokens revoked at logout are
// rejected; a denylist outage is logged and does not block the request.
func AccessToken(keys PublicKeySource, issuer string, denylist Denylist, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerOrCookie(c)
			if raw == "" {
				return unauthorized()
			}
			pub, err := keys.Public()
			if err != nil {
				return err
			}
			claims, err := utils.ParseAccess(raw, pub, issuer)
			if err != nil {
				return unauthorized()
			}
			if denylist != nil {
				ctx, cancel := context.WithTimeout(c.Request().Context(), lookupTimeout)
				denied, err := denylist.Contains(ctx, utils.HashToken(raw))
				cancel()
				if err != nil {
					log.WarnContext(c.Request().Context(), "denylist lookup failed", "error", err)
				} else if denied {
					return unauthorized()
				}
			}
			setAccess(c, claims, raw)
			return next(c)
		}
	}
}

// RefreshToken verifies the HS256 refresh token cookie and requires its
// backing record to still exist.  A store fault is treated as revocation.
func RefreshToken(secret []byte, issuer string, records RefreshRecords, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := utils.ParseRefresh(cookieValue(c, RefreshCookie), secret, issuer)
			if err != nil {
				return unauthorized()
			}
			uid, _ := claims.UserID()
			rid, _ := claims.RecordID()

			ctx, cancel := context.WithTimeout(c.Request().Context(), lookupTimeout)
			defer cancel()
			if _, err := records.FindActive(ctx, rid, uid); err != nil {
				log.ErrorContext(ctx, "error while getting the refresh token", "record", rid, "id", uid, "error", err)
				return unauthorized()
			}
			setRefresh(c, claims)
			return next(c)
		}
	}
}

// ParseRefreshToken verifies only the signature of the refresh token
// cookie.  Logout uses it so an already-revoked session can still clear
// its cookies.
func ParseRefreshToken(secret []byte, issuer string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := utils.ParseRefresh(cookieValue(c, RefreshCookie), secret, issuer)
			if err != nil {
				return unauthorized()
			}
			setRefresh(c, claims)
			return next(c)
		}
	}
}
