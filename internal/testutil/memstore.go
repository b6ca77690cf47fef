// Package testutil provides in-memory stores and fixtures shared by the
// service, middleware and handler tests.
package testutil

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
)

// Users is an in-memory user store with a unique email index.
type Users struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]model.User
	Err    error // returned by every call when set
}

func NewUsers() *Users { return &Users{byID: map[uint64]model.User{}} }

func (s *Users) Create(_ context.Context, u model.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return 0, repository.ErrEmailExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.byID[u.ID] = u
	return u.ID, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// CountEmail reports how many users hold email.
func (s *Users) CountEmail(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.byID {
		if u.Email == email {
			n++
		}
	}
	return n
}

// RefreshTokens is an in-memory refresh token record store.
type RefreshTokens struct {
	mu      sync.Mutex
	nextID  uint64
	records map[uint64]model.RefreshToken
	Err     error
}

func NewRefreshTokens() *RefreshTokens {
	return &RefreshTokens{records: map[uint64]model.RefreshToken{}}
}

func (s *RefreshTokens) Create(_ context.Context, userID uint64, expiresAt time.Time) (model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.RefreshToken{}, s.Err
	}
	s.nextID++
	now := time.Now().UTC()
	rec := model.RefreshToken{ID: s.nextID, UserID: userID, ExpiresAt: expiresAt, CreatedAt: now, UpdatedAt: now}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *RefreshTokens) FindActive(_ context.Context, id, userID uint64) (model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.RefreshToken{}, s.Err
	}
	rec, ok := s.records[id]
	if !ok || rec.UserID != userID || rec.Expired(time.Now()) {
		return model.RefreshToken{}, repository.ErrNotFound
	}
	return rec, nil
}

func (s *RefreshTokens) Delete(_ context.Context, id, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	rec, ok := s.records[id]
	if !ok || rec.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *RefreshTokens) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	now := time.Now()
	for id, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// Has reports whether record id exists.
func (s *RefreshTokens) Has(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	return ok
}

// Len reports the number of stored records.
func (s *RefreshTokens) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Denylist is an in-memory access-token denylist.
type Denylist struct {
	mu   sync.Mutex
	Keys map[string]time.Duration
	Err  error
}

func NewDenylist() *Denylist { return &Denylist{Keys: map[string]time.Duration{}} }

func (d *Denylist) Add(_ context.Context, hash string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	if ttl > 0 {
		d.Keys[hash] = ttl
	}
	return nil
}

func (d *Denylist) Contains(_ context.Context, hash string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return false, d.Err
	}
	_, ok := d.Keys[hash]
	return ok, nil
}

// Events records published auth events.
type Events struct {
	mu     sync.Mutex
	Events []queue.AuthEvent
	Err    error
}

func (e *Events) Publish(_ context.Context, ev queue.AuthEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.Events = append(e.Events, ev)
	return nil
}

// Types lists the published event types in order.
func (e *Events) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.Events))
	for _, ev := range e.Events {
		out = append(out, ev.Type)
	}
	return out
}

// FailingKeys is a key source whose key never loads.
type FailingKeys struct{}

func (FailingKeys) Private() (*rsa.PrivateKey, error) {
	return nil, errors.New("open certs/privateKey.pem: no such file or directory")
}

var (
	keyOnce sync.Once
	key     *rsa.PrivateKey
	keyErr  error
)

// RSAKey returns a 2048-bit key shared by every test in the binary.
func RSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() { key, keyErr = rsa.GenerateKey(rand.Reader, 2048) })
	if keyErr != nil {
		t.Fatalf("generate rsa key: %v", keyErr)
	}
	return key
}
