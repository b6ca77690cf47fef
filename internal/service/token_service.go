package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/utils"
)

// TokenClaims is the identity a token pair is issued for.
type TokenClaims struct {
	UserID uint64
	Role   string
}

// TokenPair is what a successful register, login or refresh hands back.
type TokenPair struct {
	Access  utils.SignedToken
	Refresh utils.SignedToken
	// RecordID is the persisted refresh token record behind Refresh.
	RecordID uint64
}

// TokenService issues access tokens (RS256, private key) and refresh tokens
// (HS256, shared secret) and persists the refresh token records that make
// the latter revocable.
type TokenService struct {
	Keys          KeySource
	RefreshSecret []byte
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Store         RefreshTokenStore
	Now           func() time.Time
}

func NewTokenService(keys KeySource, refreshSecret, issuer string, accessTTL, refreshTTL time.Duration, store RefreshTokenStore) *TokenService {
	return &TokenService{
		Keys:          keys,
		RefreshSecret: []byte(refreshSecret),
		Issuer:        issuer,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Store:         store,
		Now:           time.Now,
	}
}

func (s *TokenService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// IssueAccessToken signs {sub, role, iss, iat, exp} with the private key.
// A key that cannot be loaded is reported as ErrSigningKey.
func (s *TokenService) IssueAccessToken(c TokenClaims) (utils.SignedToken, error) {
	key, err := s.Keys.Private()
	if err != nil {
		return utils.SignedToken{}, fmt.Errorf("%w: %v", ErrSigningKey, err)
	}
	return utils.SignAccess(key, c.UserID, c.Role, s.Issuer, s.AccessTTL, s.now())
}

// IssueRefreshToken signs {sub, role, jti, iss, iat, exp} with the refresh
// secret; jti is the persisted record id.
func (s *TokenService) IssueRefreshToken(c TokenClaims, recordID uint64) (utils.SignedToken, error) {
	return utils.SignRefresh(s.RefreshSecret, c.UserID, c.Role, s.Issuer, recordID, s.RefreshTTL, s.now())
}

// PersistRefreshToken stores a record for user expiring RefreshTTL from now
// (365 days by default; leap years are not considered).
func (s *TokenService) PersistRefreshToken(ctx context.Context, user model.User) (model.RefreshToken, error) {
	rec, err := s.Store.Create(ctx, user.ID, s.now().Add(s.RefreshTTL))
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("persist refresh token: %w", err)
	}
	return rec, nil
}

// IssuePair issues an access token, persists a refresh record and signs
// the refresh token that points at it.
func (s *TokenService) IssuePair(ctx context.Context, user model.User) (TokenPair, error) {
	claims := TokenClaims{UserID: user.ID, Role: user.Role}
	access, err := s.IssueAccessToken(claims)
	if err != nil {
		return TokenPair{}, err
	}
	rec, err := s.PersistRefreshToken(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(claims, rec.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh, RecordID: rec.ID}, nil
}

// PurgeExpired deletes refresh records past their expiry.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.Store.DeleteExpired(ctx)
}
