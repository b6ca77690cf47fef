package model

import "time"

// Role names stored in users.role.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleManager  = "manager"
)

// User represents an application user record as stored in the `users`
// table.  Password holds the bcrypt hash, never the plaintext; handlers
// must build their own response types so the hash never leaves the
// service.
type User struct {
	ID        uint64    // users.id
	FirstName string    // users.first_name
	LastName  string    // users.last_name
	Email     string    // users.email (unique)
	Password  string    // users.password (bcrypt hash)
	Role      string    // users.role
	CreatedAt time.Time // users.created_at
	UpdatedAt time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The signed
// refresh token carries ID in its jti claim; a token whose record is gone
// is revoked.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	UserID    uint64    // refresh_tokens.user_id
	ExpiresAt time.Time // refresh_tokens.expires_at
	CreatedAt time.Time // refresh_tokens.created_at
	UpdatedAt time.Time // refresh_tokens.updated_at
}

// Expired reports whether the record is past its expiry at now.
func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
