package service

import (
	"context"
	"crypto/rsa"
	"time"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/queue"
)

// UserStore persists users.  Implemented by repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RefreshTokenStore persists refresh token records.  Implemented by
// repository.TokenRepo.
type RefreshTokenStore interface {
	Create(ctx context.Context, userID uint64, expiresAt time.Time) (model.RefreshToken, error)
	FindActive(ctx context.Context, id, userID uint64) (model.RefreshToken, error)
	Delete(ctx context.Context, id, userID uint64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Denylist remembers logged-out access tokens.  Implemented by
// repository.DenylistRepo.
type Denylist interface {
	Add(ctx context.Context, tokenHash string, ttl time.Duration) error
	Contains(ctx context.Context, tokenHash string) (bool, error)
}

// EventPublisher ships auth events.  Implemented by queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}

// KeySource yields the access-token signing key.  Implemented by
// keys.Loader.
type KeySource interface {
	Private() (*rsa.PrivateKey, error)
}
