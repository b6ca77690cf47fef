// Package queue defines auth event payloads and moves them over RabbitMQ.
package queue

import "time"

// Event types published by the auth service.
const (
	EventUserRegistered = "user.registered"
	EventUserLoggedIn   = "user.logged_in"
	EventUserLoggedOut  = "user.logged_out"
	EventTokenRefreshed = "token.refreshed"
)

// AuthEvent is published after a successful auth operation.  It carries
// enough for downstream consumers to audit or notify without querying the
// user store.  It never carries tokens or credentials.
type AuthEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     uint64    `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	Role       string    `json:"role,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
