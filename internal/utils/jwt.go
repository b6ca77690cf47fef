package utils // package utils provides helper functions for token signing and hashing

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedClaims is returned when a verified token lacks a usable
// subject or token identifier.
var ErrMalformedClaims = errors.New("malformed token claims")

// Claims is the payload of both token kinds.  Access tokens carry
// {sub, role, iss, iat, exp}; refresh tokens additionally carry jti, the id
// of the persisted refresh token record.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim as a numeric user id.
func (c *Claims) UserID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrMalformedClaims
	}
	return id, nil
}

// RecordID parses the jti claim as a refresh token record id.
func (c *Claims) RecordID() (uint64, error) {
	id, err := strconv.ParseUint(c.ID, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrMalformedClaims
	}
	return id, nil
}

// SignedToken is a serialized JWT along with its expiry.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

func newClaims(userID uint64, role, issuer, jti string, ttl time.Duration, now time.Time) Claims {
	now = now.UTC()
	return Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			Issuer:    issuer,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// SignAccess builds and signs an RS256 access token for a user.
func SignAccess(key *rsa.PrivateKey, userID uint64, role, issuer string, ttl time.Duration, now time.Time) (SignedToken, error) {
	if key == nil {
		return SignedToken{}, errors.New("nil signing key")
	}
	claims := newClaims(userID, role, issuer, "", ttl, now)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return SignedToken{}, fmt.Errorf("sign access token: %w", err)
	}
	return SignedToken{Token: signed, Exp: claims.ExpiresAt.Time}, nil
}

// SignRefresh builds and signs an HS256 refresh token whose jti is the
// persisted record id.
func SignRefresh(secret []byte, userID uint64, role, issuer string, recordID uint64, ttl time.Duration, now time.Time) (SignedToken, error) {
	if len(secret) == 0 {
		return SignedToken{}, errors.New("empty refresh secret")
	}
	claims := newClaims(userID, role, issuer, strconv.FormatUint(recordID, 10), ttl, now)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return SignedToken{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return SignedToken{Token: signed, Exp: claims.ExpiresAt.Time}, nil
}

// ParseAccess verifies an RS256 access token against the public key and
// issuer and returns its claims.
func ParseAccess(raw string, pub *rsa.PublicKey, issuer string) (*Claims, error) {
	if pub == nil {
		return nil, errors.New("nil verification key")
	}
	return parse(raw, jwt.SigningMethodRS256.Alg(), issuer, func(*jwt.Token) (any, error) { return pub, nil })
}

// ParseRefresh verifies an HS256 refresh token against the shared secret
// and issuer.  It does not check revocation.
func ParseRefresh(raw string, secret []byte, issuer string) (*Claims, error) {
	claims, err := parse(raw, jwt.SigningMethodHS256.Alg(), issuer, func(*jwt.Token) (any, error) { return secret, nil })
	if err != nil {
		return nil, err
	}
	if _, err := claims.RecordID(); err != nil {
		return nil, err
	}
	return claims, nil
}

func parse(raw, alg, issuer string, key jwt.Keyfunc) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	tok, err := jwt.ParseWithClaims(raw, claims, key, opts...)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// HashToken returns the SHA-256 hex digest of a raw token.  The denylist is
// keyed by this digest so raw tokens never reach Redis.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
