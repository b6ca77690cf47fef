package service

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so callers cannot probe which emails are registered.
	ErrInvalidCredentials = errors.New("email or password does not match")
	// ErrEmailExists is returned when registering an email twice.
	ErrEmailExists = errors.New("email already registered")
	// ErrUnauthorized is returned when a verified token names a user or
	// record that no longer exists.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSigningKey marks a signing-key configuration fault.  It maps to a
	// generic 500; the wrapped cause is for server logs only.
	ErrSigningKey = errors.New("signing key unavailable")
)
