package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/utils"
)

// eventTimeout bounds best-effort event publishing.
const eventTimeout = 2 * time.Second

// AuthService binds the user store, the credential verifier and the token
// issuer into the register, login, self, refresh and logout flows.
type AuthService struct {
	Users      UserStore
	Tokens     *TokenService
	Denylist   Denylist       // optional
	Events     EventPublisher // optional
	Log        *slog.Logger
	BcryptCost int

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users UserStore, tokens *TokenService, denylist Denylist, events EventPublisher, log *slog.Logger, bcryptCost int) *AuthService {
	return &AuthService{
		Users:      users,
		Tokens:     tokens,
		Denylist:   denylist,
		Events:     events,
		Log:        log,
		BcryptCost: bcryptCost,
	}
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Session is the outcome of register, login and refresh.
type Session struct {
	UserID uint64
	Tokens TokenPair
}

// Register creates a customer account and issues its first token pair.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	s.Log.DebugContext(ctx, "new request to register a user",
		"first_name", in.FirstName, "last_name", in.LastName, "email", in.Email, "password", "********")

	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	user := model.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Password:  hash,
		Role:      model.RoleCustomer,
	}
	id, err := s.Users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return Session{}, ErrEmailExists
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	user.ID = id
	s.Log.InfoContext(ctx, "user has been registered", "id", id)

	pair, err := s.Tokens.IssuePair(ctx, user)
	if err != nil {
		return Session{}, err
	}
	s.publish(ctx, queue.EventUserRegistered, user)
	return Session{UserID: id, Tokens: pair}, nil
}

// Login verifies email and password and issues a new token pair.  An
// unknown email and a wrong password both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn a comparable amount of time so response latency does
			// not reveal whether the email exists.
			utils.VerifyPassword(s.fakeHash(), password)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load user by email: %w", err)
	}
	if !utils.VerifyPassword(user.Password, password) {
		return Session{}, ErrInvalidCredentials
	}

	pair, err := s.Tokens.IssuePair(ctx, user)
	if err != nil {
		return Session{}, err
	}
	s.Log.InfoContext(ctx, "user has been logged in", "id", user.ID)
	s.publish(ctx, queue.EventUserLoggedIn, user)
	return Session{UserID: user.ID, Tokens: pair}, nil
}

// Self loads the user named by a verified access token.
func (s *AuthService) Self(ctx context.Context, userID uint64) (model.User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUnauthorized
		}
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// Refresh rotates the token pair for a verified, non-revoked refresh
// token.  The presented record is claimed by deleting it before the new
// pair is issued; of several requests replaying one token only the one
// whose delete removed the row gets a new pair.
func (s *AuthService) Refresh(ctx context.Context, claims *utils.Claims) (Session, error) {
	userID, err := claims.UserID()
	if err != nil {
		return Session{}, ErrUnauthorized
	}
	oldID, err := claims.RecordID()
	if err != nil {
		return Session{}, ErrUnauthorized
	}
	user, err := s.Self(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	if err := s.Tokens.Store.Delete(ctx, oldID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, fmt.Errorf("revoke previous refresh token: %w", err)
	}
	pair, err := s.Tokens.IssuePair(ctx, user)
	if err != nil {
		return Session{}, err
	}
	s.Log.InfoContext(ctx, "token pair refreshed", "id", userID, "revoked_record", oldID, "new_record", pair.RecordID)
	s.publish(ctx, queue.EventTokenRefreshed, user)
	return Session{UserID: userID, Tokens: pair}, nil
}

// LogoutInput names the session to end.
type LogoutInput struct {
	UserID      uint64
	RecordID    uint64    // jti of the refresh token
	AccessToken string    // raw access token presented with the request
	AccessExp   time.Time // its expiry
}

// Logout deletes the refresh record and, when a denylist is configured,
// blocks the presented access token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, in LogoutInput) error {
	// An already revoked record still ends the session.
	if err := s.Tokens.Store.Delete(ctx, in.RecordID, in.UserID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if s.Denylist != nil && in.AccessToken != "" {
		ttl := time.Until(in.AccessExp)
		if err := s.Denylist.Add(ctx, utils.HashToken(in.AccessToken), ttl); err != nil {
			// The refresh token is already revoked; the access token
			// expires on its own.
			s.Log.WarnContext(ctx, "could not denylist access token", "id", in.UserID, "error", err)
		}
	}
	s.Log.InfoContext(ctx, "user has been logged out", "id", in.UserID)
	s.publish(ctx, queue.EventUserLoggedOut, model.User{ID: in.UserID})
	return nil
}

func (s *AuthService) publish(ctx context.Context, typ string, u model.User) {
	if s.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
	defer cancel()
	ev := queue.AuthEvent{Type: typ, UserID: u.ID, Email: u.Email, Role: u.Role, OccurredAt: time.Now().UTC()}
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Log.WarnContext(ctx, "publish auth event failed", "type", typ, "id", u.ID, "error", err)
	}
}

// fallbackHash is a valid cost-10 bcrypt hash used when the dummy hash
// cannot be generated, so unknown-email logins still pay for a compare.
const fallbackHash = "$2a$10$XajjQvNhvvRt5GSeFk1xFeyqRrsxkhBkUiQeg0dt.wU1qD4aFDcga"

// hashDummy is replaced in tests.
var hashDummy = utils.HashPassword

func (s *AuthService) fakeHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash = fallbackHash
		if h, err := hashDummy("not-a-real-password", s.BcryptCost); err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
